package usecase_test

import (
	"context"
	"errors"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
)

// ErrStore はモックと期待値の間で共有されるセンチネルエラーです。
var ErrStore = errors.New("store error")

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// journal は書き込み順序を記録します。
type journal struct {
	ops []string
}

func (j *journal) add(op string) { j.ops = append(j.ops, op) }

// fakeAccessLogs はAccessLogRepositoryとAccessLogLinkerのメモリ実装です。
type fakeAccessLogs struct {
	j         *journal
	CreateErr error
	LinkErr   error
	Entries   []entity.AccessLogEntry
	Links     map[string]string
	LinkCalls int
}

func newFakeAccessLogs(j *journal) *fakeAccessLogs {
	return &fakeAccessLogs{j: j, Links: map[string]string{}}
}

func (f *fakeAccessLogs) Create(ctx context.Context, e *entity.AccessLogEntry) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.Entries = append(f.Entries, *e)
	f.j.add("log:" + e.ID)
	return nil
}

func (f *fakeAccessLogs) LinkRecognition(ctx context.Context, accessLogID, recognitionID string) error {
	f.LinkCalls++
	if f.LinkErr != nil {
		return f.LinkErr
	}
	f.Links[accessLogID] = recognitionID
	f.j.add("link:" + accessLogID)
	return nil
}

// fakeRecognitionEvents はRecognitionEventRepositoryのメモリ実装です。
type fakeRecognitionEvents struct {
	j         *journal
	CreateErr error
	Events    []entity.RecognitionEvent
}

func (f *fakeRecognitionEvents) Create(ctx context.Context, e *entity.RecognitionEvent) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.Events = append(f.Events, *e)
	f.j.add("event:" + e.AccessLogID)
	return nil
}

// mockModelResolver はModelResolverのモック実装です。
type mockModelResolver struct {
	ResolveFunc  func(ctx context.Context, segID, recID string) (entity.ModelReference, entity.ModelReference, error)
	ResolveCalls int
}

func (m *mockModelResolver) Resolve(ctx context.Context, segID, recID string) (entity.ModelReference, entity.ModelReference, error) {
	m.ResolveCalls++
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, segID, recID)
	}
	return entity.ModelReference{ID: segID, Kind: entity.ModelKindSegmentation, PathName: "seg.pth"},
		entity.ModelReference{ID: recID, Kind: entity.ModelKindRecognition, PathName: "rec.pth"}, nil
}

// mockMatcher はMatcherのモック実装です。
type mockMatcher struct {
	MatchFunc  func(ctx context.Context, image []byte, seg, rec entity.ModelReference) (entity.MatchOutcome, error)
	MatchCalls int
}

func (m *mockMatcher) Match(ctx context.Context, image []byte, seg, rec entity.ModelReference) (entity.MatchOutcome, error) {
	m.MatchCalls++
	if m.MatchFunc != nil {
		return m.MatchFunc(ctx, image, seg, rec)
	}
	return entity.MatchOutcome{}, errors.New("MatchFunc is not implemented")
}

// matchReturning は固定の結果を返すマッチャーを生成します。
func matchReturning(subjectID *string, confidence float64) *mockMatcher {
	return &mockMatcher{MatchFunc: func(ctx context.Context, image []byte, seg, rec entity.ModelReference) (entity.MatchOutcome, error) {
		return entity.MatchOutcome{CandidateSubjectID: subjectID, Confidence: confidence}, nil
	}}
}

// fakeAccessControl はAreaResolverとGrantCheckerのメモリ実装です。
type fakeAccessControl struct {
	Areas      map[string]bool
	Grants     map[[2]string]bool
	GrantErr   error
	GrantCalls int
}

func newFakeAccessControl() *fakeAccessControl {
	return &fakeAccessControl{Areas: map[string]bool{}, Grants: map[[2]string]bool{}}
}

func (f *fakeAccessControl) FindArea(ctx context.Context, id string) (*entity.Area, error) {
	if !f.Areas[id] {
		return nil, domain.ErrAreaNotFound
	}
	return &entity.Area{ID: id, Name: "area " + id}, nil
}

func (f *fakeAccessControl) HasGrant(ctx context.Context, subjectID, areaID string) (bool, error) {
	f.GrantCalls++
	if f.GrantErr != nil {
		return false, f.GrantErr
	}
	return f.Grants[[2]string{subjectID, areaID}], nil
}

// mockSubjectDirectory はSubjectDirectoryのモック実装です。
type mockSubjectDirectory struct {
	FindSubjectFunc func(ctx context.Context, id string) (*entity.Subject, error)
}

func (m *mockSubjectDirectory) FindSubject(ctx context.Context, id string) (*entity.Subject, error) {
	return m.FindSubjectFunc(ctx, id)
}

// mockSampleDirectory はSampleDirectoryのモック実装です。
type mockSampleDirectory struct {
	FindSampleFunc  func(ctx context.Context, id string) (*entity.SampleStatus, error)
	FindSampleCalls int
}

func (m *mockSampleDirectory) FindSample(ctx context.Context, id string) (*entity.SampleStatus, error) {
	m.FindSampleCalls++
	if m.FindSampleFunc != nil {
		return m.FindSampleFunc(ctx, id)
	}
	return nil, errors.New("FindSampleFunc is not implemented")
}

// matchWithSample はサンプルIDも報告するマッチャーを生成します。
func matchWithSample(subjectID, sampleID string, confidence float64) *mockMatcher {
	return &mockMatcher{MatchFunc: func(ctx context.Context, image []byte, seg, rec entity.ModelReference) (entity.MatchOutcome, error) {
		return entity.MatchOutcome{CandidateSubjectID: &subjectID, SampleID: &sampleID, Confidence: confidence}, nil
	}}
}
