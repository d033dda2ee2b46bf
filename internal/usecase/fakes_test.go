package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"civicfix/internal/domain/entity"
	"civicfix/internal/domain/repository"
	"civicfix/pkg/errors"
)

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[string]*entity.Report
	locks   map[string]string
	seq     int
	// hooks let a test fail a method once.
	createErr error
	listErr   error
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: map[string]*entity.Report{}, locks: map[string]string{}}
}

func (f *fakeReportRepo) put(r *entity.Report) *entity.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		f.seq++
		r.ID = fmt.Sprintf("r%d", f.seq)
	}
	if r.Status == entity.ReportStatusPending {
		f.locks[r.UserID] = r.ID
	}
	cp := *r
	f.reports[r.ID] = &cp
	return r
}

func (f *fakeReportRepo) get(id string) *entity.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

func (f *fakeReportRepo) CreatePending(_ context.Context, report *entity.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.locks[report.UserID]; ok {
		return errors.Rejected("PENDING_REPORT_EXISTS", "pending")
	}
	f.seq++
	report.ID = fmt.Sprintf("r%d", f.seq)
	report.Status = entity.ReportStatusPending
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	f.locks[report.UserID] = report.ID
	cp := *report
	f.reports[report.ID] = &cp
	return nil
}

func (f *fakeReportRepo) GetByID(_ context.Context, id string) (*entity.Report, error) {
	if r := f.get(id); r != nil {
		return r, nil
	}
	return nil, errors.NotFound("Report", nil)
}

func (f *fakeReportRepo) List(_ context.Context, filter entity.ReportFilter) ([]*entity.Report, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []*entity.Report
	for _, r := range f.reports {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.County != "" && r.County != filter.County {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if r.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := int64(len(out))
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*entity.Report{}, total, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (f *fakeReportRepo) ListByStatus(ctx context.Context, status entity.ReportStatus) ([]*entity.Report, error) {
	out, _, err := f.List(ctx, entity.ReportFilter{Statuses: []entity.ReportStatus{status}})
	return out, err
}

func (f *fakeReportRepo) ListPendingByUser(ctx context.Context, userID string) ([]*entity.Report, error) {
	out, _, err := f.List(ctx, entity.ReportFilter{UserID: userID, Statuses: []entity.ReportStatus{entity.ReportStatusPending}})
	return out, err
}

func (f *fakeReportRepo) HasPendingLock(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.locks[userID]
	return ok, nil
}

func (f *fakeReportRepo) SubmissionExists(_ context.Context, submissionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reports {
		if r.SubmissionID == submissionID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReportRepo) Transition(_ context.Context, id string, from entity.ReportStatus, fn repository.TransitionFunc) (*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.reports[id]
	if !ok {
		return nil, errors.NotFound("Report", nil)
	}
	if stored.Status != from {
		return nil, errors.Rejected("INVALID_TRANSITION", "wrong state").WithDetail("status", string(stored.Status))
	}
	cp := *stored
	if err := fn(&cp); err != nil {
		return nil, err
	}
	if from == entity.ReportStatusPending && cp.Status != entity.ReportStatusPending {
		delete(f.locks, cp.UserID)
	}
	f.reports[id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeReportRepo) DeletePending(_ context.Context, id string) (*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.reports[id]
	if !ok {
		return nil, errors.NotFound("Report", nil)
	}
	if stored.Status != entity.ReportStatusPending {
		return nil, errors.Rejected("INVALID_TRANSITION", "wrong state")
	}
	delete(f.reports, id)
	delete(f.locks, stored.UserID)
	return stored, nil
}

func (f *fakeReportRepo) SetUpvotes(_ context.Context, id string, upvotes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return errors.NotFound("Report", nil)
	}
	r.Upvotes = upvotes
	return nil
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  map[string]*entity.Message
	createErr error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: map[string]*entity.Message{}}
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.createErr != nil {
		return f.createErr
	}
	cp := *m
	f.messages[m.ID] = &cp
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id string) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessageRepo) ListByUser(_ context.Context, userID string, now time.Time) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Message
	for _, m := range f.messages {
		if m.UserID == userID && m.ExpiresAt.After(now) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMessageRepo) SetRead(_ context.Context, id string, read bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return errors.NotFound("Message", nil)
	}
	m.Read = read
	return nil
}

func (f *fakeMessageRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, id)
	return nil
}

func (f *fakeMessageRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id, m := range f.messages {
		if m.ExpiresAt.Before(now) {
			delete(f.messages, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) forUser(userID string) []*entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Message
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

type fakeUpvoteRepo struct {
	mu      sync.Mutex
	reports *fakeReportRepo
	flags   map[string]map[string]int
}

func newFakeUpvoteRepo(reports *fakeReportRepo) *fakeUpvoteRepo {
	return &fakeUpvoteRepo{reports: reports, flags: map[string]map[string]int{}}
}

func (f *fakeUpvoteRepo) Get(_ context.Context, userID string) (*entity.UserUpvotes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flags := map[string]int{}
	for k, v := range f.flags[userID] {
		flags[k] = v
	}
	return &entity.UserUpvotes{UserID: userID, Flags: flags}, nil
}

func (f *fakeUpvoteRepo) Toggle(ctx context.Context, userID, reportID string) (*entity.UpvoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, err := f.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.Status.Public() {
		return nil, errors.Rejected("INVALID_TRANSITION", "not public")
	}
	if f.flags[userID] == nil {
		f.flags[userID] = map[string]int{}
	}
	delta := 1
	if f.flags[userID][reportID] > 0 {
		f.flags[userID][reportID] = 0
		delta = -1
	} else {
		f.flags[userID][reportID] = 1
	}
	count := report.Upvotes + delta
	if count < 0 {
		count = 0
	}
	_ = f.reports.SetUpvotes(ctx, reportID, count)
	return &entity.UpvoteResult{ReportID: reportID, Upvoted: delta > 0, Upvotes: count}, nil
}

func (f *fakeUpvoteRepo) CountFor(_ context.Context, reportID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, flags := range f.flags {
		if flags[reportID] == 1 {
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
	gets  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; ok {
		return errors.Conflict("exists")
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	u, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id string, role entity.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return errors.NotFound("User", nil)
	}
	u.Role = role
	return nil
}

type fakeBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   int
	uploadErr error
	deleted   []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) UploadImage(_ context.Context, ownerID, submissionID string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	url := "https://blobs.test/reports/" + ownerID + "/" + submissionID
	f.objects[url] = data
	return url, nil
}

func (f *fakeBlobStore) DeleteImage(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, url)
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeBlobStore) Close() error { return nil }

type fakeVerifier struct {
	mu      sync.Mutex
	results []verifierResult
	calls   int
}

type verifierResult struct {
	ok  bool
	err error
}

func (f *fakeVerifier) Verify(context.Context, []byte, string, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	if idx < 0 {
		return true, nil
	}
	return f.results[idx].ok, f.results[idx].err
}

type publishedEvent struct {
	Type string
	Key  string
	Data map[string]interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	// onPublish runs before the event is recorded.
	onPublish func(ctx context.Context, eventType string)
}

func (f *fakePublisher) Publish(ctx context.Context, eventType, key string, data map[string]interface{}) error {
	if f.onPublish != nil {
		f.onPublish(ctx, eventType)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Type: eventType, Key: key, Data: data})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

type fakePusher struct {
	mu     sync.Mutex
	pushed map[string]int
}

func (f *fakePusher) PushMessage(userID string, _ *entity.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushed == nil {
		f.pushed = map[string]int{}
	}
	f.pushed[userID]++
}

type fakeSessionCache struct {
	mu          sync.Mutex
	roles       map[string]entity.Role
	invalidated []string
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{roles: map[string]entity.Role{}}
}

func (f *fakeSessionCache) GetRole(_ context.Context, uid string) (entity.Role, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[uid]
	return r, ok, nil
}

func (f *fakeSessionCache) SetRole(_ context.Context, uid string, role entity.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[uid] = role
	return nil
}

func (f *fakeSessionCache) Invalidate(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.roles, uid)
	f.invalidated = append(f.invalidated, uid)
	return nil
}

type fakeClaims struct {
	set map[string]string
}

func (f *fakeClaims) SetRoleClaim(_ context.Context, uid, role string) error {
	if f.set == nil {
		f.set = map[string]string{}
	}
	f.set[uid] = role
	return nil
}

// noSleep records requested waits without blocking.
type noSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	n.delays = append(n.delays, d)
	n.mu.Unlock()
	return ctx.Err()
}
