package git

import "time"

// Commit describes the commit a rule set was loaded from.
type Commit struct {
	SHA        string    `json:"sha"`
	Author     string    `json:"author"`
	Email      string    `json:"email"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
	Branch     string    `json:"branch"`
	Repository string    `json:"repository"`
}

// Short returns the first eight characters of the SHA.
func (c *Commit) Short() string {
	return shortSHA(c.SHA)
}

// PullResult reports what a pull changed.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	ChangedFiles []string
}

// HadChanges reports whether HEAD moved.
func (r *PullResult) HadChanges() bool {
	return r.FromSHA != r.ToSHA
}

// Stats counts repository operations.
type Stats struct {
	CloneDuration   time.Duration
	LastPullTime    time.Time
	LastPullSHA     string
	SuccessfulPulls int64
	FailedPulls     int64
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
