package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/formationvault-backend/internal/http/response"
	"github.com/yungbote/formationvault-backend/internal/platform/ctxutil"
)

type requester struct {
	UserID     string
	Privileged bool
}

// currentRequester writes a 401 and returns false when the request carries no
// authenticated principal.
func currentRequester(c *gin.Context) (requester, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return requester{}, false
	}
	return requester{UserID: rd.UserID.String(), Privileged: rd.Privileged}, true
}

func queryBool(c *gin.Context, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(name))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
