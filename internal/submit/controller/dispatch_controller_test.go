package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"judgegate/internal/common/metrics"
	"judgegate/internal/submit/model"
	"judgegate/internal/submit/service"
	appErr "judgegate/pkg/errors"
	"judgegate/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeDispatcher struct {
	submitErr  error
	rejudgeErr error

	submitted []model.SubmissionRequest
	rejudged  []string
	ctxSubIDs []any
}

func (d *fakeDispatcher) Submit(ctx context.Context, req model.SubmissionRequest) error {
	d.submitted = append(d.submitted, req)
	d.ctxSubIDs = append(d.ctxSubIDs, ctx.Value(contextkey.SubmissionID))
	return d.submitErr
}

func (d *fakeDispatcher) Rejudge(_ context.Context, subID string) error {
	d.rejudged = append(d.rejudged, subID)
	return d.rejudgeErr
}

func newRouter(d Dispatcher, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewDispatchController(d, nil, m)
	router.POST("/submission", h.Submit)
	router.GET("/rejudge", h.Rejudge)
	router.GET("/healthz", h.Health)
	return router
}

type receipt struct {
	Message  string `json:"message"`
	Received string `json:"received"`
}

func postSubmission(t *testing.T, router *gin.Engine, body string) (*httptest.ResponseRecorder, receipt) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submission", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	var got receipt
	dec := json.NewDecoder(rec.Body)
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if dec.More() {
		t.Fatalf("expected exactly one receipt in the body")
	}
	return rec, got
}

const validBody = `{"token":"t","submissionType":"0","submissionId":"11","standardId":"2","problemType":"0"}`

func TestSubmitReceipts(t *testing.T) {
	cases := []struct {
		name         string
		body         string
		submitErr    error
		wantMessage  string
		wantReceived string
		wantCalls    int
	}{
		{
			name:         "accepted",
			body:         validBody,
			wantMessage:  "none",
			wantReceived: "yes",
			wantCalls:    1,
		},
		{
			name:         "missing problemType",
			body:         `{"token":"t","submissionType":"0","submissionId":"11","standardId":"2"}`,
			wantMessage:  "data format is error",
			wantReceived: "no",
		},
		{
			name:         "not json",
			body:         `submissionId=11`,
			wantMessage:  "data format is error",
			wantReceived: "no",
		},
		{
			name:         "token rejected",
			body:         validBody,
			submitErr:    appErr.New(appErr.TokenInvalid),
			wantMessage:  "token invalid",
			wantReceived: "no",
			wantCalls:    1,
		},
		{
			name:         "already graded",
			body:         validBody,
			submitErr:    appErr.New(appErr.SubmissionNotFound),
			wantMessage:  "query file_structure failed",
			wantReceived: "no",
			wantCalls:    1,
		},
		{
			name:         "bad structure",
			body:         validBody,
			submitErr:    appErr.New(appErr.FileStructureInvalid),
			wantMessage:  "get file structure failed",
			wantReceived: "no",
			wantCalls:    1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDispatcher{submitErr: tc.submitErr}
			rec, got := postSubmission(t, newRouter(d, nil), tc.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got.Message != tc.wantMessage || got.Received != tc.wantReceived {
				t.Fatalf("got %+v, want {%s %s}", got, tc.wantMessage, tc.wantReceived)
			}
			if len(d.submitted) != tc.wantCalls {
				t.Fatalf("dispatcher calls = %d, want %d", len(d.submitted), tc.wantCalls)
			}
		})
	}
}

func TestSubmitPassesSubmissionIDInContext(t *testing.T) {
	d := &fakeDispatcher{}
	postSubmission(t, newRouter(d, nil), validBody)
	if len(d.ctxSubIDs) != 1 || d.ctxSubIDs[0] != "11" {
		t.Fatalf("unexpected context values: %v", d.ctxSubIDs)
	}
	if d.submitted[0].Token != "t" || d.submitted[0].StandardID != "2" {
		t.Fatalf("unexpected request: %+v", d.submitted[0])
	}
}

func TestSubmitCountsOutcomes(t *testing.T) {
	m := metrics.New()
	router := newRouter(&fakeDispatcher{}, m)
	postSubmission(t, router, validBody)
	postSubmission(t, router, `{}`)

	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("queued")); got != 1 {
		t.Fatalf("queued = %v", got)
	}
	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("invalid_request")); got != 1 {
		t.Fatalf("invalid_request = %v", got)
	}
}

func TestRejudgeAnswersEmpty(t *testing.T) {
	cases := []struct {
		name  string
		url   string
		err   error
		subID string
	}{
		{name: "queued", url: "/rejudge?sub_id=42", subID: "42"},
		{name: "missing sub_id", url: "/rejudge", err: appErr.New(appErr.InvalidParams)},
		{name: "not found", url: "/rejudge?sub_id=9", err: appErr.New(appErr.SubmissionNotFound), subID: "9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDispatcher{rejudgeErr: tc.err}
			rec := httptest.NewRecorder()
			newRouter(d, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Fatalf("expected empty body, got %q", rec.Body.String())
			}
			if len(d.rejudged) != 1 || d.rejudged[0] != tc.subID {
				t.Fatalf("unexpected rejudge calls: %v", d.rejudged)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeDispatcher{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
}

// publisherFunc adapts a function to service.Publisher.
type publisherFunc func(ctx context.Context, task any) error

func (f publisherFunc) Publish(ctx context.Context, task any) error { return f(ctx, task) }

type staticRepo struct {
	record *model.SubmissionRecord
}

func (r staticRepo) FindUngraded(context.Context, string, string) (*model.SubmissionRecord, error) {
	if r.record == nil {
		return nil, appErr.New(appErr.SubmissionNotFound)
	}
	return r.record, nil
}

func (r staticRepo) FindByID(ctx context.Context, subID string) (*model.SubmissionRecord, error) {
	return r.FindUngraded(ctx, subID, "")
}

func TestSubmitEndToEndWithBrokerDown(t *testing.T) {
	published := 0
	svc, err := service.NewDispatchService(service.Config{
		SubmissionRepo: staticRepo{record: &model.SubmissionRecord{PTypeID: "0", UpdatedAt: "2024-03-01 08:30:00"}},
		Publisher: publisherFunc(func(context.Context, any) error {
			published++
			return appErr.New(appErr.BrokerUnavailable)
		}),
	})
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}

	_, got := postSubmission(t, newRouter(svc, nil), validBody)
	if got.Message != "none" || got.Received != "yes" {
		t.Fatalf("broker failure must not change the receipt, got %+v", got)
	}
	if published != 1 {
		t.Fatalf("expected one publish attempt, got %d", published)
	}
}
