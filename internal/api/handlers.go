package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leagueback/internal/impact"
	"leagueback/internal/riot"
	"leagueback/internal/service"
)

const (
	defaultHistoryCount = 10
	maxHistoryCount     = 100
	maxStoredPage       = 100
)

// Analyzer is the service surface the handlers need.
type Analyzer interface {
	Account(ctx context.Context, gameName, tagLine string) (*riot.AccountResponse, error)
	MatchHistory(ctx context.Context, puuid string, count, start int) ([]string, error)
	AnalyzeMatch(ctx context.Context, matchID, puuid string) (*service.Analysis, error)
	StoredMatches(ctx context.Context, puuid string, page service.Page) (*service.StoredMatches, error)
	ImpactCategories(ctx context.Context, puuid string, recent int) (*service.CategoryReport, error)
}

type Handler struct {
	svc Analyzer
	log *zap.Logger
}

func NewHandler(svc Analyzer, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log.Named("api")}
}

// HealthCheck reports that the server is up.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "leagueback",
	})
}

// GetAccount resolves ?gameName=&tagLine= to an account.
func (h *Handler) GetAccount(c *gin.Context) {
	gameName := c.Query("gameName")
	tagLine := c.Query("tagLine")
	if gameName == "" || tagLine == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing gameName or tagLine"})
		return
	}

	account, err := h.svc.Account(c.Request.Context(), gameName, tagLine)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetMatchHistory lists ?count= ranked match ids of ?puuid=.
func (h *Handler) GetMatchHistory(c *gin.Context) {
	puuid := c.Query("puuid")
	if puuid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing puuid"})
		return
	}

	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(defaultHistoryCount)))
	if err != nil || count <= 0 || count > maxHistoryCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be between 1 and 100"})
		return
	}
	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil || start < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be a non-negative integer"})
		return
	}

	ids, err := h.svc.MatchHistory(c.Request.Context(), puuid, count, start)
	if err != nil {
		h.fail(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, ids)
}

// GetMatchPerformance analyzes ?matchId= for ?userPuuid=. Failures past
// argument validation are reported in the body with success=false.
func (h *Handler) GetMatchPerformance(c *gin.Context) {
	matchID := c.Query("matchId")
	puuid := c.Query("userPuuid")
	if matchID == "" || puuid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing matchId or userPuuid"})
		return
	}

	res, err := h.svc.AnalyzeMatch(c.Request.Context(), matchID, puuid)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, impact.ErrParticipantNotFound) {
			msg = "User not found in match."
		} else {
			h.log.Warn("match analysis failed", zap.String("match_id", matchID), zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"success": false, "error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"matchSummary": res.Summary,
		"category":     res.Category,
	})
}

// GetStoredMatches rebuilds the analyzed matches of ?puuid=, all of them
// unless ?limit= (and optionally ?offset=) select a page.
func (h *Handler) GetStoredMatches(c *gin.Context) {
	puuid := c.Query("puuid")
	if puuid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing puuid"})
		return
	}

	var page service.Page
	if v, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxStoredPage {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		page.Limit = limit
	}
	if v, ok := c.GetQuery("offset"); ok {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return
		}
		if page.Limit == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset requires limit"})
			return
		}
		page.Offset = offset
	}

	res, err := h.svc.StoredMatches(c.Request.Context(), puuid, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetImpactCategories tallies the categories of ?puuid= over all and the
// last ?recent= matches.
func (h *Handler) GetImpactCategories(c *gin.Context) {
	puuid := c.Query("puuid")
	if puuid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing puuid"})
		return
	}

	recent, err := strconv.Atoi(c.DefaultQuery("recent", strconv.Itoa(service.DefaultRecent)))
	if err != nil || recent <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recent must be a positive integer"})
		return
	}

	res, err := h.svc.ImpactCategories(c.Request.Context(), puuid, recent)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// fail maps upstream errors to a status code.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch {
	case riot.IsNotFound(err):
		status = http.StatusNotFound
	case riot.IsRateLimited(err):
		status = http.StatusTooManyRequests
	case riot.IsKeyRejected(err):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
