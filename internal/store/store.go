// Package store persists canonical descriptors in the sqlite database and
// enforces admission and duplicate checks on the way in.
package store

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"gorm.io/gorm"

	"subforge/internal/logger"
	"subforge/internal/model"
	"subforge/internal/protocol"
	"subforge/internal/schema"
)

var (
	ErrNotFound  = errors.New("descriptor not found")
	ErrDuplicate = errors.New("descriptor already stored")
)

// credentialFields are the ids that tell two entries on one endpoint apart.
var credentialFields = []string{"uuid", "password", "username", "private-key", "token", "auth-str", "psk"}

// Report summarizes a batch insert.
type Report struct {
	Added            int
	SkippedDuplicate int
	SkippedInvalid   int
}

// Locator maps a server address to an ISO country code, or "" when unknown.
type Locator func(host string) string

type Store struct {
	db       *gorm.DB
	registry *protocol.Registry
	locate   Locator
}

type Option func(*Store)

// WithLocator annotates new descriptors whose server is an IP literal.
func WithLocator(l Locator) Option {
	return func(s *Store) { s.locate = l }
}

func New(db *gorm.DB, registry *protocol.Registry, opts ...Option) *Store {
	s := &Store{db: db, registry: registry}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add admits c and stores it. It returns the new id.
func (s *Store) Add(c *protocol.Canonical, source string) (string, error) {
	d, fields, err := s.admit(c.Protocol, c.Fields)
	if err != nil {
		return "", err
	}
	name := d.Synthesize(fields).Name()
	key := Key(d.Name, fields)
	if taken, err := s.keyTaken(key, ""); err != nil {
		return "", err
	} else if taken {
		return "", fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	row := model.Descriptor{
		ID:       uuid.NewString(),
		Protocol: d.Name,
		Name:     name,
		Fields:   fields,
		Key:      key,
		Source:   source,
		Country:  s.country(fields),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return "", fmt.Errorf("store descriptor: %w", err)
	}
	return row.ID, nil
}

// AddBatch stores every entry it can. Failures are counted, never returned.
func (s *Store) AddBatch(items []*protocol.Canonical, source string) Report {
	var r Report
	for _, c := range items {
		_, err := s.Add(c, source)
		switch {
		case err == nil:
			r.Added++
		case errors.Is(err, ErrDuplicate):
			r.SkippedDuplicate++
		default:
			logger.Log.Debugf("store: rejected %s entry: %v", c.Protocol, err)
			r.SkippedInvalid++
		}
	}
	return r
}

// List returns stored descriptors in insertion order. With ids, only those
// rows are returned, still in insertion order.
func (s *Store) List(ids ...string) ([]model.Descriptor, error) {
	var rows []model.Descriptor
	q := s.db.Order("rowid")
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list descriptors: %w", err)
	}
	return rows, nil
}

func (s *Store) Get(id string) (*model.Descriptor, error) {
	var row model.Descriptor
	err := s.db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get descriptor: %w", err)
	}
	return &row, nil
}

// Update merges partial into the stored fields. An empty value removes the
// field. The merged result must still pass admission. It reports false when
// id does not exist.
func (s *Store) Update(id string, partial schema.Fields) (bool, error) {
	row, err := s.Get(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	merged := schema.Fields(row.Fields).Clone()
	for k, v := range partial {
		if schema.ShapeOf(v) == schema.ShapeEmpty {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	d, fields, err := s.admit(row.Protocol, merged)
	if err != nil {
		return false, err
	}
	key := Key(d.Name, fields)
	if taken, err := s.keyTaken(key, id); err != nil {
		return false, err
	} else if taken {
		return false, fmt.Errorf("%w: %s", ErrDuplicate, d.Synthesize(fields).Name())
	}

	row.Fields = fields
	row.Key = key
	row.Name = d.Synthesize(fields).Name()
	row.Country = s.country(fields)
	if err := s.db.Save(row).Error; err != nil {
		return false, fmt.Errorf("update descriptor: %w", err)
	}
	return true, nil
}

// Remove deletes id and reports whether it existed.
func (s *Store) Remove(id string) (bool, error) {
	res := s.db.Where("id = ?", id).Delete(&model.Descriptor{})
	if res.Error != nil {
		return false, fmt.Errorf("remove descriptor: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&model.Descriptor{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count descriptors: %w", err)
	}
	return n, nil
}

func (s *Store) CountByProtocol() (map[string]int64, error) {
	return s.countBy("protocol")
}

// CountByCountry groups by country code. Unknown countries are keyed "".
func (s *Store) CountByCountry() (map[string]int64, error) {
	return s.countBy("country")
}

func (s *Store) countBy(column string) (map[string]int64, error) {
	var rows []struct {
		Value string
		Total int64
	}
	err := s.db.Model(&model.Descriptor{}).
		Select(column + " AS value, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Value] = r.Total
	}
	return out, nil
}

// Canonical turns a stored row back into its canonical form.
func Canonical(row *model.Descriptor) *protocol.Canonical {
	return &protocol.Canonical{Protocol: row.Protocol, Fields: schema.Fields(row.Fields).Clone()}
}

// Proxies synthesizes stored rows, all of them or the given ids, in
// insertion order. Rows whose protocol is no longer registered are skipped.
func (s *Store) Proxies(ids ...string) ([]*protocol.Proxy, error) {
	rows, err := s.List(ids...)
	if err != nil {
		return nil, err
	}
	out := make([]*protocol.Proxy, 0, len(rows))
	for i := range rows {
		p, err := s.registry.Synthesize(Canonical(&rows[i]))
		if err != nil {
			logger.Log.Warnf("store: skipping %s: %v", rows[i].ID, err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// admit resolves the protocol, drops ids outside its schema and validates.
func (s *Store) admit(proto string, fields schema.Fields) (*protocol.Descriptor, schema.Fields, error) {
	d, ok := s.registry.Resolve(proto)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", protocol.ErrUnsupported, proto)
	}
	kept := make(schema.Fields, len(fields))
	for k, v := range fields {
		if _, known := d.Field(k); known {
			kept[k] = v
		}
	}
	if err := d.Validate(kept); err != nil {
		return nil, nil, err
	}
	return d, kept, nil
}

func (s *Store) keyTaken(key, exceptID string) (bool, error) {
	var n int64
	q := s.db.Model(&model.Descriptor{}).Where("dedup_key = ?", key)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return n > 0, nil
}

func (s *Store) country(fields schema.Fields) string {
	if s.locate == nil {
		return ""
	}
	host := schema.String(fields["server"])
	if net.ParseIP(host) == nil {
		return ""
	}
	return s.locate(host)
}

// Key identifies a descriptor by protocol, endpoint and credential.
func Key(proto string, fields schema.Fields) string {
	parts := []string{
		strings.ToUpper(proto),
		strings.ToLower(schema.String(fields["server"])),
	}
	for _, id := range []string{"port", "ports", "port-range"} {
		parts = append(parts, schema.String(fields[id]))
	}
	for _, id := range credentialFields {
		parts = append(parts, schema.String(fields[id]))
	}
	if fields.Present("peers") {
		b, _ := json.Marshal(fields["peers"])
		parts = append(parts, string(b))
	}
	h := xxh3.HashString128(strings.Join(parts, "|"))
	var sum [16]byte
	binary.LittleEndian.PutUint64(sum[:8], h.Lo)
	binary.LittleEndian.PutUint64(sum[8:], h.Hi)
	return hex.EncodeToString(sum[:])
}
