package models

import "time"

// Poll is a multiple-choice question broadcast to the class.
// Results and EndedAt are set once the poll has ended.
type Poll struct {
	ID           string     `json:"id"`
	Question     string     `json:"question"`
	Options      []string   `json:"options"`
	TimerSeconds int        `json:"timer"`
	CreatedAt    time.Time  `json:"createdAt"`
	IsActive     bool       `json:"isActive"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	Results      []Result   `json:"results,omitempty"`
}

// Result is the tally for one option of an ended poll.
type Result struct {
	Option     string `json:"option"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Clone returns a deep copy so callers can't reach the owner's slices.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Options = append([]string(nil), p.Options...)
	if p.Results != nil {
		cp.Results = append([]Result(nil), p.Results...)
	}
	if p.EndedAt != nil {
		t := *p.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}
