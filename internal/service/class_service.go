package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calabozos/calabozos-backend/internal/model"
	"github.com/calabozos/calabozos-backend/internal/repository"
	"github.com/calabozos/calabozos-backend/internal/upstream"
	"github.com/rs/zerolog"
)

// ErrInvalidUpstreamResponse aborts a sync whose payload has no results list.
var ErrInvalidUpstreamResponse = errors.New("invalid upstream response: missing or invalid results array")

// UpstreamAPI is the part of the upstream client the class service needs.
type UpstreamAPI interface {
	FetchCollection(ctx context.Context, path string) (json.RawMessage, error)
	FetchDetail(ctx context.Context, path string) (json.RawMessage, bool, error)
}

// ClassService syncs the class list into the local store and proxies
// per-class detail reads straight to the upstream API.
type ClassService struct {
	api   UpstreamAPI
	store repository.ClassStore
	log   zerolog.Logger
}

// NewClassService creates a new ClassService.
func NewClassService(api UpstreamAPI, store repository.ClassStore, log zerolog.Logger) *ClassService {
	return &ClassService{
		api:   api,
		store: store,
		log:   log.With().Str("component", "class_service").Logger(),
	}
}

// SyncAll fetches the upstream class list and records every class not yet
// stored. Items that are not JSON objects are skipped; items that fail to
// persist are logged and skipped. The stored records of the items that
// succeeded are returned in upstream order.
func (s *ClassService) SyncAll(ctx context.Context) ([]model.ClassRecord, error) {
	body, err := s.api.FetchCollection(ctx, upstream.CollectionPath)
	if err != nil {
		return nil, fmt.Errorf("fetch classes: %w", err)
	}

	items, err := resultsOf(body)
	if err != nil {
		return nil, err
	}

	records := make([]model.ClassRecord, 0, len(items))
	for _, item := range items {
		if !isObject(item) {
			continue
		}

		stored, err := s.persist(ctx, item)
		if err != nil {
			s.log.Warn().
				RawJSON("class_data", item).
				Err(err).
				Msg("Failed to process class data")
			continue
		}
		records = append(records, *stored)
	}

	s.log.Debug().
		Int("upstream", len(items)).
		Int("synced", len(records)).
		Msg("Class sync finished")

	return records, nil
}

func (s *ClassService) persist(ctx context.Context, item json.RawMessage) (*model.ClassRecord, error) {
	var raw map[string]any
	if err := json.Unmarshal(item, &raw); err != nil {
		return nil, fmt.Errorf("decode class: %w", err)
	}
	rec := model.ClassRecordFromMap(raw)
	return s.store.FindOrCreate(ctx, &rec)
}

// StoredClasses returns every locally stored class in insertion order.
func (s *ClassService) StoredClasses(ctx context.Context) ([]model.ClassRecord, error) {
	return s.store.All(ctx)
}

// Detail fetches the full upstream document of one class.
func (s *ClassService) Detail(ctx context.Context, index string) (json.RawMessage, bool, error) {
	return s.fetchDetail(ctx, index)
}

// Spellcasting fetches a class's spellcasting rules.
func (s *ClassService) Spellcasting(ctx context.Context, index string) (json.RawMessage, bool, error) {
	return s.fetchDetail(ctx, index, upstream.SubSpellcasting)
}

// Multiclassing fetches a class's multiclassing prerequisites and proficiencies.
func (s *ClassService) Multiclassing(ctx context.Context, index string) (json.RawMessage, bool, error) {
	return s.fetchDetail(ctx, index, upstream.SubMulticlassing)
}

// Subclasses fetches the subclasses available to a class.
func (s *ClassService) Subclasses(ctx context.Context, index string) (json.RawMessage, bool, error) {
	return s.fetchDetail(ctx, index, upstream.SubSubclasses)
}

// Spells fetches the spell list of a class.
func (s *ClassService) Spells(ctx context.Context, index string) (json.RawMessage, bool, error) {
	return s.fetchDetail(ctx, index, upstream.SubSpells)
}

// Features fetches the features of a class.
func (s *ClassService) Features(ctx context.Context, index string) (json.RawMessage, bool, error) {
	return s.fetchDetail(ctx, index, upstream.SubFeatures)
}

// Proficiencies fetches the proficiencies of a class.
func (s *ClassService) Proficiencies(ctx context.Context, index string) (json.RawMessage, bool, error) {
	return s.fetchDetail(ctx, index, upstream.SubProficiencies)
}

func (s *ClassService) fetchDetail(ctx context.Context, index string, sub ...string) (json.RawMessage, bool, error) {
	path, err := upstream.ClassPath(index, sub...)
	if err != nil {
		return nil, false, err
	}
	return s.api.FetchDetail(ctx, path)
}

// resultsOf extracts the "results" array of a collection payload.
func resultsOf(body json.RawMessage) ([]json.RawMessage, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpstreamResponse, err)
	}

	raw, ok := payload["results"]
	if !ok || !isArray(raw) {
		return nil, ErrInvalidUpstreamResponse
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpstreamResponse, err)
	}
	return items, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
