package service

import (
	"time"
	"work-allocation/internal/models"
)

// Полезные нагрузки событий реального времени

type AssignmentEvent struct {
	Assignment *models.Assignment `json:"assignment"`
	PlanID     string             `json:"planId"`
}

type UnassignmentEvent struct {
	AssignmentID string `json:"assignmentId"`
	PlanID       string `json:"planId,omitempty"`
}

type PresenceEvent struct {
	Presence *models.WorkerPresence `json:"presence"`
	PlanID   string                 `json:"planId"`
}

type WorkerEvent struct {
	Worker *models.Worker `json:"worker"`
}

type PlanEvent struct {
	Plan *models.Plan `json:"plan"`
}

type PlanDeletedEvent struct {
	PlanID string `json:"planId"`
}

// PlansPurgedEvent сообщает клиентам, что список планов нужно перечитать
type PlansPurgedEvent struct {
	Deleted int64     `json:"deleted"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
}

type PostEvent struct {
	Post *models.Post `json:"post"`
}

type PostDeletedEvent struct {
	PostID string `json:"postId"`
}
