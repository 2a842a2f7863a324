package utils

import (
	"fmt"
	"strings"
)

// Anomaly is one recoverable numerical irregularity recorded during an
// assembly sweep: an unsupported boundary condition, a degenerate flux
// state, and the like.
type Anomaly struct {
	Tag    string
	Detail string
}

// AnomalyLog accumulates anomalies across a sweep so the run can proceed
// best-effort. The outer driver drains and reports the log at a safe
// checkpoint instead of aborting mid-assembly. Not safe for concurrent
// use.
type AnomalyLog struct {
	anomalies []Anomaly
}

func (a *AnomalyLog) Logf(tag, format string, args ...any) {
	a.anomalies = append(a.anomalies, Anomaly{
		Tag:    tag,
		Detail: fmt.Sprintf(format, args...),
	})
}

func (a *AnomalyLog) Count() int { return len(a.anomalies) }

func (a *AnomalyLog) Empty() bool { return len(a.anomalies) == 0 }

// Drain returns the accumulated anomalies and resets the log.
func (a *AnomalyLog) Drain() (out []Anomaly) {
	out = a.anomalies
	a.anomalies = nil
	return
}

func (a *AnomalyLog) String() string {
	var sb strings.Builder
	for _, an := range a.anomalies {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", an.Tag, an.Detail))
	}
	return sb.String()
}
