// Package log provides secure logging functionality with automatic masking
// of sensitive information, built on top of the standard slog package.
//
// Host profiles can configure per-site cookies and authentication headers,
// and those values flow through fetch-layer log attributes. The SecureHandler
// masks them before they reach any log output, even in debug mode, so logs
// can be shared without leaking session credentials.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request sent",
//	    "cookie", "session=abc123",  // masked in output
//	    "url", "https://example.com/restaurants",
//	)
//
//	slog.SetDefault(logger)
package log
