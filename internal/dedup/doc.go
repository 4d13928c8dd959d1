// Package dedup provides first-seen-wins identity sets for crawl entities.
//
// Each entity kind (restaurant, review, user) has its own key space. Admit
// is atomic: under concurrent calls with the same key exactly one caller is
// admitted, so a record is emitted at most once per run regardless of how
// many workers encounter it.
package dedup
