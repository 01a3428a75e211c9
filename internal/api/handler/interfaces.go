package handler

import (
	"github.com/sanosuguru/go-pickleball-events/internal/application"
	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

// CatalogServiceInterface はイベント一覧サービスのインターフェース
type CatalogServiceInterface interface {
	ListEvents(opts application.FilterOptions) []*event.Event
	UpcomingEvents(limit int) []*event.Event
	PastEvents() []*event.Event
	EventsByCategory(category event.Category) []*event.Event
	GetEvent(id string) (*event.Event, error)
	EventIDs() []string
}
