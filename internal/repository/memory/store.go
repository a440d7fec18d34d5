// Package memory provides an in-process repository.Store. Transactions are
// serialized by a mutex and run against a cloned copy of the state that
// replaces the live state only when the transaction function succeeds, so a
// failed transition never leaves partial writes behind.
//
// Errors mirror what the gorm store returns (gorm.ErrRecordNotFound,
// gorm.ErrDuplicatedKey) so services handle both stores the same way.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gift-exchange-backend/internal/database/models"
	"gift-exchange-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCheckViolation mirrors a failed check constraint
var ErrCheckViolation = errors.New("check constraint violated: recipient_id <> user_id")

// ErrReadOnly is returned for writes inside a read-only transaction
var ErrReadOnly = errors.New("cannot write in a read-only transaction")

type memberKey struct {
	groupID uuid.UUID
	userID  string
}

type groupRecord struct {
	group models.Group
	seq   uint64
}

type memberRecord struct {
	member models.Member
	seq    uint64
}

type state struct {
	users   map[string]models.User
	groups  map[uuid.UUID]groupRecord
	members map[memberKey]memberRecord
	seq     uint64
}

func newState() *state {
	return &state{
		users:   map[string]models.User{},
		groups:  map[uuid.UUID]groupRecord{},
		members: map[memberKey]memberRecord{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:   make(map[string]models.User, len(s.users)),
		groups:  make(map[uuid.UUID]groupRecord, len(s.groups)),
		members: make(map[memberKey]memberRecord, len(s.members)),
		seq:     s.seq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.groups {
		c.groups[k] = v
	}
	for k, v := range s.members {
		v.member.RecipientID = cloneString(v.member.RecipientID)
		c.members[k] = v
	}
	return c
}

func (s *state) next() uint64 {
	s.seq++
	return s.seq
}

// Store is an in-memory repository.Store
type Store struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: newState(), now: time.Now}
}

// WithinTransaction runs fn on a private copy of the state and publishes the
// copy if fn returns nil.
func (s *Store) WithinTransaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(s.repositories(working, false)); err != nil {
		return err
	}
	s.state = working
	return nil
}

// WithinReadOnlyTransaction runs fn against the current state. Concurrent
// readers share it; writers wait until every reader is done.
func (s *Store) WithinReadOnlyTransaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(s.repositories(s.state, true))
}

// Ping always succeeds unless ctx is done
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) repositories(st *state, readOnly bool) repository.Repositories {
	return repository.Repositories{
		Users:   &userRepository{st: st, readOnly: readOnly, now: s.now},
		Groups:  &groupRepository{st: st, readOnly: readOnly, now: s.now},
		Members: &memberRepository{st: st, readOnly: readOnly, now: s.now},
	}
}

type userRepository struct {
	st       *state
	readOnly bool
	now      func() time.Time
}

func (r *userRepository) EnsureExists(user *models.User) error {
	if r.readOnly {
		return ErrReadOnly
	}
	if existing, ok := r.st.users[user.ID]; ok {
		*user = existing
		return nil
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	r.st.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(id string) (*models.User, error) {
	user, ok := r.st.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

type groupRepository struct {
	st       *state
	readOnly bool
	now      func() time.Time
}

func (r *groupRepository) Create(group *models.Group) error {
	if r.readOnly {
		return ErrReadOnly
	}
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if _, ok := r.st.groups[group.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	for _, rec := range r.st.groups {
		if rec.group.Name == group.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	now := r.now()
	group.CreatedAt = now
	group.UpdatedAt = now
	r.st.groups[group.ID] = groupRecord{group: *group, seq: r.st.next()}
	return nil
}

func (r *groupRepository) GetByID(id uuid.UUID) (*models.Group, error) {
	rec, ok := r.st.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	group := rec.group
	return &group, nil
}

// GetByIDForUpdate needs no lock of its own: write transactions already hold
// the store mutex.
func (r *groupRepository) GetByIDForUpdate(id uuid.UUID) (*models.Group, error) {
	return r.GetByID(id)
}

func (r *groupRepository) GetByName(name string) (*models.Group, error) {
	for _, rec := range r.st.groups {
		if rec.group.Name == name {
			group := rec.group
			return &group, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *groupRepository) GetAll(limit, offset int) ([]models.Group, int64, error) {
	records := make([]groupRecord, 0, len(r.st.groups))
	for _, rec := range r.st.groups {
		records = append(records, rec)
	}
	// newest first, like ORDER BY created_at DESC
	sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })

	groups := make([]models.Group, 0, len(records))
	for _, rec := range page(records, limit, offset) {
		groups = append(groups, rec.group)
	}
	return groups, int64(len(records)), nil
}

func (r *groupRepository) SetRevealed(id uuid.UUID, revealed bool) error {
	if r.readOnly {
		return ErrReadOnly
	}
	rec, ok := r.st.groups[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	rec.group.IsRevealed = revealed
	rec.group.UpdatedAt = r.now()
	r.st.groups[id] = rec
	return nil
}

func (r *groupRepository) Delete(id uuid.UUID) error {
	if r.readOnly {
		return ErrReadOnly
	}
	if _, ok := r.st.groups[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.st.groups, id)
	// ON DELETE CASCADE
	for k := range r.st.members {
		if k.groupID == id {
			delete(r.st.members, k)
		}
	}
	return nil
}

type memberRepository struct {
	st       *state
	readOnly bool
	now      func() time.Time
}

func (r *memberRepository) Create(member *models.Member) error {
	if r.readOnly {
		return ErrReadOnly
	}
	if _, ok := r.st.groups[member.GroupID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if _, ok := r.st.users[member.UserID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	key := memberKey{groupID: member.GroupID, userID: member.UserID}
	if _, ok := r.st.members[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if member.Role == "" {
		member.Role = models.MemberRoleMember
	}
	if member.IsCaptain() && r.hasCaptain(member.GroupID) {
		return gorm.ErrDuplicatedKey
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = r.now()
	}

	stored := *member
	stored.Group = nil
	stored.User = nil
	stored.RecipientID = cloneString(member.RecipientID)
	r.st.members[key] = memberRecord{member: stored, seq: r.st.next()}
	return nil
}

func (r *memberRepository) hasCaptain(groupID uuid.UUID) bool {
	for k, rec := range r.st.members {
		if k.groupID == groupID && rec.member.IsCaptain() {
			return true
		}
	}
	return false
}

func (r *memberRepository) Get(groupID uuid.UUID, userID string) (*models.Member, error) {
	rec, ok := r.st.members[memberKey{groupID: groupID, userID: userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	member := copyMember(rec.member)
	return &member, nil
}

func (r *memberRepository) GetByGroupID(groupID uuid.UUID) ([]models.Member, error) {
	records := r.filter(func(k memberKey) bool { return k.groupID == groupID })
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	members := make([]models.Member, 0, len(records))
	for _, rec := range records {
		member := copyMember(rec.member)
		if user, ok := r.st.users[member.UserID]; ok {
			member.User = &user
		}
		members = append(members, member)
	}
	return members, nil
}

func (r *memberRepository) GetByUserID(userID string, limit, offset int) ([]models.Member, int64, error) {
	records := r.filter(func(k memberKey) bool { return k.userID == userID })
	sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })

	members := make([]models.Member, 0, len(records))
	for _, rec := range page(records, limit, offset) {
		member := copyMember(rec.member)
		if g, ok := r.st.groups[member.GroupID]; ok {
			group := g.group
			member.Group = &group
		}
		members = append(members, member)
	}
	return members, int64(len(records)), nil
}

func (r *memberRepository) CountByGroupID(groupID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(k memberKey) bool { return k.groupID == groupID }))), nil
}

func (r *memberRepository) AssignRecipient(groupID uuid.UUID, userID, recipientID string) (bool, error) {
	if r.readOnly {
		return false, ErrReadOnly
	}
	key := memberKey{groupID: groupID, userID: userID}
	rec, ok := r.st.members[key]
	if !ok || rec.member.RecipientID != nil {
		return false, nil
	}
	if userID == recipientID {
		return false, ErrCheckViolation
	}
	for k, other := range r.st.members {
		if k.groupID == groupID && other.member.RecipientID != nil && *other.member.RecipientID == recipientID {
			return false, gorm.ErrDuplicatedKey
		}
	}
	rec.member.RecipientID = &recipientID
	r.st.members[key] = rec
	return true, nil
}

func (r *memberRepository) DeleteByGroupID(groupID uuid.UUID) error {
	if r.readOnly {
		return ErrReadOnly
	}
	for k := range r.st.members {
		if k.groupID == groupID {
			delete(r.st.members, k)
		}
	}
	return nil
}

func (r *memberRepository) filter(match func(memberKey) bool) []memberRecord {
	var records []memberRecord
	for k, rec := range r.st.members {
		if match(k) {
			records = append(records, rec)
		}
	}
	return records
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func copyMember(m models.Member) models.Member {
	m.RecipientID = cloneString(m.RecipientID)
	return m
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
