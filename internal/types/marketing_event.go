package types

// MarketingEvent is the payload written to the external marketing-event directory.
// ExternalEventID always carries the originating insight ID.
type MarketingEvent struct {
	EventName        string            `json:"eventName"`
	EventType        string            `json:"eventType"`
	StartDateTime    int64             `json:"startDateTime"`
	EndDateTime      int64             `json:"endDateTime,omitempty"`
	EventDescription string            `json:"eventDescription,omitempty"`
	EventOrganizer   string            `json:"eventOrganizer"`
	CustomProperties map[string]string `json:"customProperties,omitempty"`
	ExternalEventID  string            `json:"externalEventId,omitempty"`
}

// MarketingEventRecord is an event as listed by the external directory.
// Reconciliation only reads ID and ExternalEventID; the rest is informational.
type MarketingEventRecord struct {
	ID               string `json:"id"`
	ExternalEventID  string `json:"externalEventId"`
	EventName        string `json:"eventName,omitempty"`
	EventType        string `json:"eventType,omitempty"`
	EventOrganizer   string `json:"eventOrganizer,omitempty"`
	EventDescription string `json:"eventDescription,omitempty"`
}

// SyncResult lists the directory identifiers touched by a reconciliation.
type SyncResult struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Deleted []string `json:"deleted"`
}

// NewSyncResult returns a SyncResult with empty, non-nil lists.
func NewSyncResult() *SyncResult {
	return &SyncResult{
		Created: []string{},
		Updated: []string{},
		Deleted: []string{},
	}
}

// BatchFailure describes one insight that could not be created during a batch.
type BatchFailure struct {
	InsightID string `json:"insight_id"`
	Name      string `json:"name"`
	Error     string `json:"error"`
}

// BatchCreateResult reports a best-effort bulk creation.
type BatchCreateResult struct {
	Created  []string       `json:"created"`
	Failures []BatchFailure `json:"failures,omitempty"`
}
