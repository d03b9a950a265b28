package ingestion

import "fmt"

// FetchError wraps the failure of one signal source. Any FetchError aborts ingestion.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
