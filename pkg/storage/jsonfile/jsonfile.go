// Package jsonfile reads the reference data from the JSON record files of a
// local directory or of an http(s) base URL.
//
// The directory holds:
//
//	availChars.json       [{"chara_id": 1001, "en_name": "..."}]
//	ownedCharacters.json  optional, same shape; preferred when present
//	relationTypes.json    [{"relation_type": 101, "relation_point": 3}]
//	relationGroups.json   [{"relation_type": 101, "chara_id": 1001}]
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	affinityerrors "github.com/umafamily/affinity/pkg/errors"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/types"
)

var tracer = otel.Tracer("affinity/pkg/storage/jsonfile")

const (
	AvailableFile      = "availChars.json"
	OwnedFile          = "ownedCharacters.json"
	RelationTypesFile  = "relationTypes.json"
	RelationGroupsFile = "relationGroups.json"

	defaultRetryMax = 3
)

var (
	entityIDKeys     = []string{"chara_id", "char_id", "id"}
	entityNameKeys   = []string{"en_name", "name"}
	relationTypeKeys = []string{"relation_type"}
	pointsKeys       = []string{"relation_point", "points"}
)

// Option configures a [Datastore].
type Option func(*Datastore)

func WithLogger(l logger.Logger) Option {
	return func(s *Datastore) {
		s.logger = l
	}
}

// WithRetryMax sets how many times a failed remote fetch is retried.
func WithRetryMax(n int) Option {
	return func(s *Datastore) {
		s.retryMax = n
	}
}

// WithHTTPClient replaces the client used for remote fetches.
func WithHTTPClient(c *retryablehttp.Client) Option {
	return func(s *Datastore) {
		s.client = c
	}
}

// WithAvailableOnly makes ReadEntities ignore the owned roster.
func WithAvailableOnly() Option {
	return func(s *Datastore) {
		s.availableOnly = true
	}
}

// Datastore reads and writes the JSON record files.
type Datastore struct {
	dir           string
	baseURL       *url.URL
	client        *retryablehttp.Client
	retryMax      int
	availableOnly bool
	logger        logger.Logger
}

var (
	_ storage.RecordReader  = (*Datastore)(nil)
	_ storage.RosterWriter  = (*Datastore)(nil)
	_ storage.DatasetWriter = (*Datastore)(nil)
)

// New returns a datastore rooted at uri, either a directory path or an
// http(s) base URL. Remote datastores are read only.
func New(uri string, opts ...Option) (*Datastore, error) {
	s := &Datastore{
		retryMax: defaultRetryMax,
		logger:   logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		base, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid json datastore url: %w", err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		s.baseURL = base

		if s.client == nil {
			s.client = retryablehttp.NewClient()
			s.client.RetryMax = s.retryMax
			s.client.Logger = &leveledLogger{logger: s.logger}
		}
		return s, nil
	}

	uri = strings.TrimPrefix(uri, "file://")
	info, err := os.Stat(uri)
	if err != nil {
		return nil, fmt.Errorf("open json datastore: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open json datastore: %s is not a directory", uri)
	}
	s.dir = uri
	return s, nil
}

// Remote reports whether the records are fetched over http.
func (s *Datastore) Remote() bool {
	return s.baseURL != nil
}

// Close see [storage.RecordReader].Close.
func (s *Datastore) Close() {
	if s.client != nil {
		s.client.HTTPClient.CloseIdleConnections()
	}
}

// ReadEntities see [storage.RecordReader].ReadEntities. The owned roster is
// used when present, else every available character.
func (s *Datastore) ReadEntities(ctx context.Context) ([]types.Entity, error) {
	ctx, span := tracer.Start(ctx, "jsonfile.ReadEntities")
	defer span.End()

	name := OwnedFile
	if s.availableOnly {
		name = AvailableFile
	}
	data, err := s.fetch(ctx, name)
	if name == OwnedFile && errors.Is(err, storage.ErrNotFound) {
		name = AvailableFile
		data, err = s.fetch(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	s.logger.DebugWithContext(ctx, "reading characters", zap.String("file", name))
	return parseEntities(name, data)
}

// ReadRelationRules see [storage.RecordReader].ReadRelationRules.
func (s *Datastore) ReadRelationRules(ctx context.Context) ([]types.RelationRule, error) {
	ctx, span := tracer.Start(ctx, "jsonfile.ReadRelationRules")
	defer span.End()

	data, err := s.fetch(ctx, RelationTypesFile)
	if err != nil {
		return nil, err
	}

	var rules []types.RelationRule
	err = forEachRecord(RelationTypesFile, data, func(i int, rec gjson.Result) error {
		rt, err := relationType(RelationTypesFile, i, rec)
		if err != nil {
			return err
		}
		points, ok := first(rec, pointsKeys)
		if !ok || points.Type != gjson.Number {
			return affinityerrors.DataIntegrityf("%s record %d: missing relation_point", RelationTypesFile, i)
		}
		n, err := integer(points.Raw)
		if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
			return affinityerrors.DataIntegrityf("%s record %d: relation_point must be an integer, got %s", RelationTypesFile, i, points.Raw)
		}
		rules = append(rules, types.RelationRule{RelationType: rt, Points: int(n)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// ReadRelationGroups see [storage.RecordReader].ReadRelationGroups.
func (s *Datastore) ReadRelationGroups(ctx context.Context) ([]types.RelationGroup, error) {
	ctx, span := tracer.Start(ctx, "jsonfile.ReadRelationGroups")
	defer span.End()

	data, err := s.fetch(ctx, RelationGroupsFile)
	if err != nil {
		return nil, err
	}

	var groups []types.RelationGroup
	err = forEachRecord(RelationGroupsFile, data, func(i int, rec gjson.Result) error {
		rt, err := relationType(RelationGroupsFile, i, rec)
		if err != nil {
			return err
		}
		id, err := entityID(RelationGroupsFile, i, rec)
		if err != nil {
			return err
		}
		groups = append(groups, types.RelationGroup{RelationType: rt, EntityID: id})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// ReadOwned returns the ids of the owned roster. It fails with
// storage.ErrNotFound when there is no roster.
func (s *Datastore) ReadOwned(ctx context.Context) ([]types.EntityID, error) {
	ctx, span := tracer.Start(ctx, "jsonfile.ReadOwned")
	defer span.End()

	data, err := s.fetch(ctx, OwnedFile)
	if err != nil {
		return nil, err
	}
	entities, err := parseEntities(OwnedFile, data)
	if err != nil {
		return nil, err
	}
	return types.EntityIDs(entities), nil
}

type ownedRecord struct {
	CharID types.EntityID `json:"char_id"`
	EnName string         `json:"en_name"`
}

// SetOwned see [storage.RosterWriter].SetOwned. The roster is written to
// ownedCharacters.json with names taken from availChars.json; an empty
// roster removes the file.
func (s *Datastore) SetOwned(ctx context.Context, ids []types.EntityID) error {
	ctx, span := tracer.Start(ctx, "jsonfile.SetOwned")
	defer span.End()

	if s.Remote() {
		return storage.ErrReadOnly
	}

	path := filepath.Join(s.dir, OwnedFile)
	if len(ids) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clear owned roster: %w", err)
		}
		return nil
	}

	data, err := s.fetch(ctx, AvailableFile)
	if err != nil {
		return err
	}
	available, err := parseEntities(AvailableFile, data)
	if err != nil {
		return err
	}
	names := make(map[types.EntityID]string, len(available))
	for _, e := range available {
		names[e.ID] = e.Name
	}

	records := make([]ownedRecord, 0, len(ids))
	for _, id := range ids {
		name, ok := names[id]
		if !ok {
			s.logger.WarnWithContext(ctx, "owned character is not available", zap.Int64("id", int64(id)))
		}
		records = append(records, ownedRecord{CharID: id, EnName: name})
	}
	return writeJSON(path, records)
}

type entityRecord struct {
	CharaID types.EntityID `json:"chara_id"`
	EnName  string         `json:"en_name"`
}

type ruleRecord struct {
	RelationType  any `json:"relation_type"`
	RelationPoint int `json:"relation_point"`
}

type groupRecord struct {
	RelationType any            `json:"relation_type"`
	CharaID      types.EntityID `json:"chara_id"`
}

// WriteDataset see [storage.DatasetWriter].WriteDataset. The owned roster
// file is left untouched.
func (s *Datastore) WriteDataset(ctx context.Context, d *storage.Dataset) error {
	_, span := tracer.Start(ctx, "jsonfile.WriteDataset")
	defer span.End()

	if s.Remote() {
		return storage.ErrReadOnly
	}

	entities := make([]entityRecord, 0, len(d.Entities))
	for _, e := range d.Entities {
		entities = append(entities, entityRecord{CharaID: e.ID, EnName: e.Name})
	}
	rules := make([]ruleRecord, 0, len(d.Rules))
	for _, r := range d.Rules {
		rules = append(rules, ruleRecord{RelationType: relationTypeValue(r.RelationType), RelationPoint: r.Points})
	}
	groups := make([]groupRecord, 0, len(d.Groups))
	for _, g := range d.Groups {
		groups = append(groups, groupRecord{RelationType: relationTypeValue(g.RelationType), CharaID: g.EntityID})
	}

	for name, v := range map[string]any{
		AvailableFile:      entities,
		RelationTypesFile:  rules,
		RelationGroupsFile: groups,
	} {
		if err := writeJSON(filepath.Join(s.dir, name), v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Datastore) fetch(ctx context.Context, name string) ([]byte, error) {
	if !s.Remote() {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, storage.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}

	target := s.baseURL.ResolveReference(&url.URL{Path: name})
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", name, storage.ErrNotFound)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", name, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	return data, nil
}

func parseEntities(name string, data []byte) ([]types.Entity, error) {
	var entities []types.Entity
	err := forEachRecord(name, data, func(i int, rec gjson.Result) error {
		id, err := entityID(name, i, rec)
		if err != nil {
			return err
		}
		var entityName string
		if n, ok := first(rec, entityNameKeys); ok {
			entityName = n.String()
		}
		entities = append(entities, types.Entity{ID: id, Name: entityName})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func forEachRecord(name string, data []byte, fn func(int, gjson.Result) error) error {
	if !gjson.ValidBytes(data) {
		return affinityerrors.DataIntegrityf("%s: invalid JSON", name)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return affinityerrors.DataIntegrityf("%s: expected a list of records", name)
	}

	for i, rec := range root.Array() {
		if !rec.IsObject() {
			return affinityerrors.DataIntegrityf("%s record %d: expected an object", name, i)
		}
		if err := fn(i, rec); err != nil {
			return err
		}
	}
	return nil
}

func first(rec gjson.Result, keys []string) (gjson.Result, bool) {
	for _, key := range keys {
		if v := rec.Get(key); v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func entityID(name string, i int, rec gjson.Result) (types.EntityID, error) {
	v, ok := first(rec, entityIDKeys)
	if !ok {
		return 0, affinityerrors.DataIntegrityf("%s record %d: missing character id", name, i)
	}

	var id int64
	switch v.Type {
	case gjson.Number:
		parsed, err := integer(v.Raw)
		if err != nil {
			return 0, affinityerrors.DataIntegrityf("%s record %d: invalid character id %s", name, i, v.Raw)
		}
		id = parsed
	case gjson.String:
		parsed, err := integer(v.Str)
		if err != nil {
			return 0, affinityerrors.DataIntegrityf("%s record %d: invalid character id %q", name, i, v.Str)
		}
		id = parsed
	default:
		return 0, affinityerrors.DataIntegrityf("%s record %d: invalid character id %s", name, i, v.Raw)
	}
	if id == 0 {
		return 0, affinityerrors.DataIntegrityf("%s record %d: missing character id", name, i)
	}
	return types.EntityID(id), nil
}

// integer parses a JSON number literal that must be a whole decimal int64.
// Fractions, exponents and out of range values are rejected instead of being
// truncated.
func integer(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

// relationType keeps numeric identifiers in their decimal string form.
func relationType(name string, i int, rec gjson.Result) (types.RelationType, error) {
	v, ok := first(rec, relationTypeKeys)
	if !ok || (v.Type != gjson.Number && v.Type != gjson.String) || v.String() == "" {
		return "", affinityerrors.DataIntegrityf("%s record %d: missing relation_type", name, i)
	}
	return types.RelationType(v.String()), nil
}

func relationTypeValue(rt types.RelationType) any {
	if n, err := strconv.ParseInt(string(rt), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(rt) {
		return n
	}
	return string(rt)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// leveledLogger routes retryablehttp's log lines to the datastore logger.
type leveledLogger struct {
	logger logger.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues)...)
}

func fields(keysAndValues []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		out = append(out, zap.Any(key, keysAndValues[i+1]))
	}
	return out
}
