// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"time"

	"github.com/smazurov/liftlights/internal/cycle"
	"github.com/smazurov/liftlights/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// Lift models
type LiftData struct {
	Name      string `json:"name" example:"Combettes" doc:"Lift name as reported by the status API"`
	Index     int    `json:"index" example:"2" doc:"LED index showing this lift"`
	Displayed bool   `json:"displayed" example:"true" doc:"Whether the index fits on the strip"`
	Status    string `json:"status,omitempty" example:"open" doc:"Last reported status; empty if never reported"`
	Color     string `json:"color" example:"green" doc:"Colour currently held for this LED"`
}

type LiftListData struct {
	Lifts      []LiftData `json:"lifts" doc:"Catalog in LED order"`
	Count      int        `json:"count" example:"46" doc:"Number of catalog entries"`
	Duplicates []string   `json:"duplicates,omitempty" doc:"Names listed more than once; the first index wins"`
}

type LiftListResponse struct {
	Body LiftListData
}

// Frame models
type FrameData struct {
	Colors    []string `json:"colors" doc:"Colour per LED index"`
	Heartbeat string   `json:"heartbeat" example:"black" doc:"Colour of the reserved slot 0"`
	LEDCount  int      `json:"led_count" example:"50" doc:"Strip length"`
	Commits   uint64   `json:"commits" example:"12" doc:"Frames pushed to the strip since start"`
}

type FrameResponse struct {
	Body FrameData
}

// Cycle models
type CycleData struct {
	State    string        `json:"state" example:"idle" doc:"Controller state"`
	Interval time.Duration `json:"interval" example:"60000000000" doc:"Pause between cycles in nanoseconds"`
	Cycles   uint64        `json:"cycles" example:"42" doc:"Cycles run since start"`
	Last     *cycle.Result `json:"last,omitempty" doc:"Most recent cycle"`
}

type CycleResponse struct {
	Body CycleData
}

type CycleTriggerResponse struct {
	Body cycle.Result
}

// Log models
type LogData struct {
	Entries []LogEntryData `json:"entries" doc:"Buffered log records, oldest first"`
	Count   int            `json:"count" example:"120" doc:"Number of records"`
}

type LogEntryData struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00.123Z" doc:"Record time"`
	Level      string         `json:"level" example:"INFO" doc:"Record level"`
	Module     string         `json:"module" example:"cycle" doc:"Logger module"`
	Message    string         `json:"message" doc:"Record message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

type LogResponse struct {
	Body LogData
}
