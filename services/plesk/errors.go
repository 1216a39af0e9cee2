package plesk

import "fmt"

// NotFoundError reports a lookup for a resource this service has no
// record of.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// ConflictError reports an attempt to create a resource that already
// exists.
type ConflictError struct {
	Resource string
	Key      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.Key)
}

// ScrapeError reports a panel page whose layout did not match what the
// scraper expects. It is distinct from "the page says there is
// nothing here", which is not an error.
type ScrapeError struct {
	Host   string
	Page   string
	Detail string
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s%s: %s", e.Host, e.Page, e.Detail)
}
