package engine

import (
	"github.com/jcpaschoal/confmgmt/business/types/origin"
)

// Status values reported by the engine in every reply.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Envelope is the reply shape of every engine call.
type Envelope[T any] struct {
	Status string `json:"status"`
	Result T      `json:"result"`
	Error  string `json:"error,omitempty"`
}

// ScheduleRequest asks the cluster for an entry point near origin.
type ScheduleRequest struct {
	Code   int64         `json:"code"`
	Origin origin.Origin `json:"origin"`
}

// Portal describes the entry point allocated for a token.
// UnderHTTPSProxy is nil when the engine does not report it.
type Portal struct {
	Hostname        string `json:"hostname"`
	IP              string `json:"ip"`
	Port            int    `json:"port"`
	SSL             bool   `json:"ssl"`
	UnderHTTPSProxy *bool  `json:"under_https_proxy,omitempty"`
}
