package model

import (
	"time"

	"PTalk/tools/errs"
)

const CallLogTableName = "call_logs"

type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

func ParseCallKind(s string) (CallKind, error) {
	switch normalize(s) {
	case "audio":
		return CallAudio, nil
	case "video":
		return CallVideo, nil
	}
	return "", errs.ErrValidation.WrapMsg("unknown call type", "call_type", s)
}

type CallStatus string

const (
	CallOngoing CallStatus = "Ongoing"
	CallEnded   CallStatus = "Ended"
)

// Verdict is the outcome of a call attempt; empty while undecided.
type Verdict string

const (
	VerdictUnset    Verdict = ""
	VerdictAccepted Verdict = "Accepted"
	VerdictDenied   Verdict = "Denied"
	VerdictMissed   Verdict = "Missed"
	VerdictBusy     Verdict = "Busy"
)

// Ends reports whether reaching this verdict also ends the call. Accepted
// keeps the call live.
func (v Verdict) Ends() bool {
	return v != VerdictUnset && v != VerdictAccepted
}

// CallLog records one call attempt. It is created Ongoing by call setup and
// receives exactly one verdict from signaling.
type CallLog struct {
	ID           string     `bson:"_id" json:"_id"`
	CallType     CallKind   `bson:"call_type" json:"callType"`
	Participants []string   `bson:"participants" json:"participants"`
	From         string     `bson:"from" json:"from"`
	To           string     `bson:"to" json:"to"`
	StartTime    time.Time  `bson:"start_time" json:"startTime"`
	EndTime      *time.Time `bson:"end_time,omitempty" json:"endTime,omitempty"`
	Status       CallStatus `bson:"status" json:"status"`
	Verdict      Verdict    `bson:"verdict,omitempty" json:"verdict,omitempty"`
}

func (l *CallLog) GetTableName() string {
	return CallLogTableName
}

// CallUpdate is the transition written by one signaling event.
type CallUpdate struct {
	Verdict Verdict
	Status  CallStatus // empty leaves the status unchanged
	EndTime *time.Time
}

// TransitionTo builds the update for verdict v at time now.
func TransitionTo(v Verdict, now time.Time) CallUpdate {
	u := CallUpdate{Verdict: v}
	if v.Ends() {
		u.Status = CallEnded
		u.EndTime = &now
	}
	return u
}

// Apply mutates l in place; used by the in-memory store and by tests.
func (u CallUpdate) Apply(l *CallLog) {
	l.Verdict = u.Verdict
	if u.Status != "" {
		l.Status = u.Status
	}
	if u.EndTime != nil {
		t := *u.EndTime
		l.EndTime = &t
	}
}
