package api

import (
	"net/http"
)

// ─── OTP Handlers ───────────────────────────────────────────────────────────

// handleSendOTP issues a one-time code for a phone.
// POST /api/otp/send
func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	code, err := s.gate.Issue(r.Context(), req.Phone)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]interface{}{"message": "OTP sent"}
	if s.exposeOTP {
		resp["otp"] = code
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVerifyOTP checks a one-time code.
// POST /api/otp/verify
func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.gate.Verify(r.Context(), req.Phone, req.OTP); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified"})
}
