package splits

// TotalBps is the share denominator: 10,000 basis points == 100%.
const TotalBps = 10_000

// MinShareBps is the smallest configurable share (1%).
const MinShareBps = 100

// MaxRecipients bounds the length of a split configuration.
const MaxRecipients = 10

// ShareEntry assigns a fraction of an item's revenue to one recipient.
type ShareEntry struct {
	Recipient [20]byte `json:"recipient"`
	ShareBps  uint32   `json:"shareBps"`
}

// Config is the per-item revenue split. An empty entry list means the whole
// item revenue goes to the creator. Once Locked flips true the configuration
// is immutable for the item's remaining lifetime.
type Config struct {
	ItemID  uint64       `json:"itemId"`
	Entries []ShareEntry `json:"entries"`
	Locked  bool         `json:"locked"`
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Entries != nil {
		clone.Entries = make([]ShareEntry, len(c.Entries))
		copy(clone.Entries, c.Entries)
	}
	return &clone
}
