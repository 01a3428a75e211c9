package datafile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

var moduleTemplate = template.Must(template.New("module").Parse(`// Code generated by fetch-events. DO NOT EDIT.
// このファイルは自動生成されています。手動で編集しないでください。

import type { EventCategory, PickleballEvent } from './types';

export const events: PickleballEvent[] = {{.Events}};

function todayInJapan(): string {
  return new Date(Date.now() + 9 * 60 * 60 * 1000).toISOString().slice(0, 10);
}

export function getEvents(): PickleballEvent[] {
  return events;
}

export function getUpcomingEvents(limit?: number): PickleballEvent[] {
  const today = todayInJapan();
  const upcoming = events
    .filter((e) => e.eventDate !== null && e.eventDate >= today)
    .sort((a, b) => (a.eventDate as string).localeCompare(b.eventDate as string));
  return limit === undefined ? upcoming : upcoming.slice(0, limit);
}

export function getPastEvents(): PickleballEvent[] {
  const today = todayInJapan();
  return events
    .filter((e) => e.eventDate !== null && e.eventDate < today)
    .sort((a, b) => (b.eventDate as string).localeCompare(a.eventDate as string));
}

export function getEventsByCategory(category: EventCategory): PickleballEvent[] {
  return events.filter((e) => e.category === category);
}

export function getEventById(id: string): PickleballEvent | undefined {
  return events.find((e) => e.id === id);
}

export function getAllEventIds(): string[] {
  return events.map((e) => e.id);
}
`))

// ModuleWriter はフロントエンドが import する TypeScript のデータモジュールを生成する
type ModuleWriter struct {
	path string
}

// NewModuleWriter は ModuleWriter を作成する
func NewModuleWriter(path string) *ModuleWriter {
	return &ModuleWriter{path: path}
}

// Name は書き出し先の名前を返す
func (w *ModuleWriter) Name() string {
	return "module"
}

// Write はモジュール全体を生成し直して置き換える
func (w *ModuleWriter) Write(ctx context.Context, events []*event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := RenderModule(events)
	if err != nil {
		return err
	}
	return writeFileAtomic(w.path, data)
}

// RenderModule はデータモジュールの内容を返す。同じ入力なら同じバイト列になる
func RenderModule(events []*event.Event) ([]byte, error) {
	if events == nil {
		events = []*event.Event{}
	}

	var literal bytes.Buffer
	enc := json.NewEncoder(&literal)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return nil, fmt.Errorf("イベントのエンコードに失敗しました: %w", err)
	}

	var out bytes.Buffer
	err := moduleTemplate.Execute(&out, struct{ Events string }{
		Events: string(bytes.TrimRight(literal.Bytes(), "\n")),
	})
	if err != nil {
		return nil, fmt.Errorf("データモジュールの生成に失敗しました: %w", err)
	}
	return out.Bytes(), nil
}
