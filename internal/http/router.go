package http

import "net/http"

type RouterConfig struct {
	Auth          *AuthHandler
	Postings      *PostingHandler
	Applications  *ApplicationHandler
	Engagements   *EngagementHandler
	Shifts        *ShiftHandler
	Fees          *FeeHandler
	Conversations *ConversationHandler
	Notifications *NotificationHandler
	Middleware    []func(http.Handler) http.Handler
}

// NewRouter wires all endpoint handlers onto a ServeMux. Method matching and
// path parameters are delegated to the mux patterns; handlers read path values
// with Request.PathValue.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("POST /sessions", cfg.Auth.CreateSession)
		mux.HandleFunc("DELETE /sessions/current", cfg.Auth.DeleteCurrentSession)
		mux.HandleFunc("DELETE /sessions/{token}", cfg.Auth.DeleteSession)
	}

	if cfg.Postings != nil {
		mux.HandleFunc("GET /postings", cfg.Postings.ListOpen)
		mux.HandleFunc("POST /postings", cfg.Postings.Create)
		mux.HandleFunc("GET /postings/mine", cfg.Postings.ListMine)
		mux.HandleFunc("GET /postings/{id}", cfg.Postings.Get)
		mux.HandleFunc("POST /postings/{id}/close", cfg.Postings.Close)
	}

	if cfg.Applications != nil {
		mux.HandleFunc("GET /applications", cfg.Applications.List)
		mux.HandleFunc("POST /applications", cfg.Applications.Create)
		mux.HandleFunc("POST /applications/{id}/review", cfg.Applications.StartReview)
		mux.HandleFunc("POST /applications/{id}/accept", cfg.Applications.Accept)
		mux.HandleFunc("POST /applications/{id}/reject", cfg.Applications.Reject)
		mux.HandleFunc("POST /applications/{id}/withdraw", cfg.Applications.Withdraw)
	}

	if cfg.Conversations != nil {
		mux.HandleFunc("GET /applications/{id}/conversation", cfg.Conversations.ForApplication)
		mux.HandleFunc("GET /conversations/{id}/messages", cfg.Conversations.ListMessages)
		mux.HandleFunc("POST /conversations/{id}/messages", cfg.Conversations.SendMessage)
	}

	if cfg.Engagements != nil {
		mux.HandleFunc("GET /engagements", cfg.Engagements.List)
		mux.HandleFunc("POST /engagements", cfg.Engagements.Create)
		mux.HandleFunc("POST /engagements/{id}/accept", cfg.Engagements.Accept)
		mux.HandleFunc("POST /engagements/{id}/reject", cfg.Engagements.Reject)
	}

	if cfg.Shifts != nil {
		mux.HandleFunc("GET /engagements/{id}/shifts", cfg.Shifts.List)
		mux.HandleFunc("POST /engagements/{id}/shifts", cfg.Shifts.Create)
		mux.HandleFunc("POST /engagements/{id}/shifts/bulk", cfg.Shifts.BulkCreate)
		mux.HandleFunc("DELETE /shifts/{id}", cfg.Shifts.Delete)
	}

	if cfg.Fees != nil {
		mux.HandleFunc("GET /fees", cfg.Fees.List)
		mux.HandleFunc("POST /fees/{id}/confirm", cfg.Fees.Confirm)
		mux.HandleFunc("POST /fees/{id}/overdue", cfg.Fees.MarkOverdue)
		mux.HandleFunc("POST /fees/{id}/cancel", cfg.Fees.Cancel)
	}

	if cfg.Notifications != nil {
		mux.HandleFunc("GET /notifications", cfg.Notifications.List)
		mux.HandleFunc("POST /notifications/{id}/read", cfg.Notifications.MarkRead)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
