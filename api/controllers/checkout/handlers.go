package checkout

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/checkout-bridge/api/responses"
	"github.com/angelmondragon/checkout-bridge/api/validators"
	checkoutsvc "github.com/angelmondragon/checkout-bridge/internal/checkout"
	pkgerrors "github.com/angelmondragon/checkout-bridge/pkg/errors"
	"github.com/angelmondragon/checkout-bridge/pkg/logger"
)

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// CreateSession handles POST /create-checkout-session.
func CreateSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var req createSessionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.UserID != "" {
			ctx = logg.WithUserID(ctx, req.UserID)
		}

		input, err := req.toInput(r.Header.Get("Origin"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CreateSession(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, createSessionResponse{SessionID: result.SessionID})
	}
}

// SessionDetails handles GET /checkout-session/{sessionId}.
func SessionDetails(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID := chi.URLParam(r, "sessionId")
		ctx = logg.WithSessionID(ctx, sessionID)

		details, err := svc.GetSessionDetails(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}
