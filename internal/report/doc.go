// Package report formats end-of-run crawl summaries.
//
// Three formats are supported: plain text for terminals, JSON for tool
// integration, and Markdown for documentation and sharing. A MultiWriter
// fans one summary out to several destinations, such as terminal plus file.
package report
