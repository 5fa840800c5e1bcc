package devserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/enrich"
	"github.com/goalcheck/goalcheck/internal/events"
	"github.com/goalcheck/goalcheck/internal/generator"
	"github.com/goalcheck/goalcheck/internal/locale"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/openapi"
	"github.com/goalcheck/goalcheck/internal/store"
	"github.com/goalcheck/goalcheck/internal/stream"
)

// requestLocale prefers the body's locale and falls back to the headers.
func requestLocale(c *gin.Context, bodyLocale string) locale.Locale {
	loc := locale.FromRequest(c.Request)
	if parsed, ok := locale.Parse(bodyLocale); ok {
		loc.Tag = parsed.Tag
		if parsed.Region != "" {
			loc.Region = parsed.Region
		}
	}
	return loc
}

func (h *handler) bindQuestions(c *gin.Context) (string, locale.Locale, bool) {
	var req checklist.QuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", locale.Locale{}, false
	}
	goal, err := checklist.NormalizeGoal(req.Goal)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", locale.Locale{}, false
	}
	return goal, requestLocale(c, req.Locale), true
}

func (h *handler) questions(c *gin.Context) {
	goal, loc, ok := h.bindQuestions(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, checklist.QuestionsResponse{Questions: h.gen.Questions(goal, loc)})
}

func (h *handler) questionsStream(c *gin.Context) {
	goal, loc, ok := h.bindQuestions(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	qs := h.gen.Questions(goal, loc)

	w := openStream(c, "questions", h.delay)
	if err := w.send(stream.Event{Status: stream.StatusStarted, Total: len(qs)}); err != nil {
		w.finish("cancelled")
		return
	}
	for i, idx := range generator.EmissionOrder(goal, len(qs)) {
		if !w.pause(ctx) {
			w.finish("cancelled")
			return
		}
		ev := stream.Event{Status: stream.StatusQuestionReady, Question: raw(qs[idx]), Progress: i + 1, Total: len(qs)}
		if err := w.send(ev); err != nil {
			w.finish("cancelled")
			return
		}
	}
	if err := w.send(stream.Event{Status: stream.StatusCompleted, Total: len(qs)}); err != nil {
		w.finish("cancelled")
		return
	}
	_ = w.done()
	w.finish("completed")
}

type generation struct {
	req   checklist.ChecklistRequest
	goal  string
	loc   locale.Locale
	owner string
}

// prepare validates the request and charges one credit. It writes the error
// response itself.
func (h *handler) prepare(c *gin.Context) (*generation, bool) {
	var req checklist.ChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	goal, err := checklist.NormalizeGoal(req.Goal)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	loc := requestLocale(c, req.Locale)
	if len(req.Answers) > 0 {
		if err := checklist.ValidateAnswers(h.gen.Questions(goal, loc), req.Answers); err != nil {
			var verr *checklist.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "problems": verr.Problems})
				return nil, false
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
	}
	owner := currentUser(c)
	remaining, err := h.store.ConsumeCredit(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, store.ErrNoCredits) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "no credits left"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	h.logger.Debug("credit_consumed", logutil.Fields{"email": owner, "remaining": remaining})
	return &generation{req: req, goal: goal, loc: loc, owner: owner}, true
}

func (h *handler) generate(c *gin.Context) {
	g, ok := h.prepare(c)
	if !ok {
		return
	}
	items := h.gen.Items(g.goal, g.req.Answers, g.loc)
	for i := range items {
		items[i] = checklist.Merge(items[i], h.gen.Enrich(g.goal, items[i], g.loc))
	}
	list := &checklist.Checklist{ID: uuid.NewString(), Goal: g.goal, Locale: g.loc.String(), Items: items, CreatedAt: time.Now().UTC()}
	if g.req.Save {
		if err := h.save(c.Request.Context(), g.owner, list, ""); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, checklist.ChecklistResponse{Checklist: *list})
}

func (h *handler) generateStream(c *gin.Context) {
	g, ok := h.prepare(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	streamID := uuid.NewString()
	items := h.gen.Items(g.goal, g.req.Answers, g.loc)
	logger := h.logger.With(logutil.Fields{"stream_id": streamID})

	w := openStream(c, "checklist", h.delay)
	if err := w.send(stream.Event{Status: stream.StatusStarted, StreamID: streamID, Total: len(items)}); err != nil {
		w.finish("cancelled")
		return
	}
	for _, chunk := range h.gen.Chunks(g.goal, len(items), g.loc) {
		if !w.pause(ctx) || w.send(stream.Event{Status: stream.StatusGenerating, StreamID: streamID, Chunk: chunk}) != nil {
			w.finish("cancelled")
			return
		}
	}
	for i, idx := range generator.EmissionOrder(g.goal, len(items)) {
		if !w.pause(ctx) {
			w.finish("cancelled")
			return
		}
		ev := stream.Event{Status: stream.StatusItemReady, StreamID: streamID, Item: raw(items[idx]), Progress: i + 1, Total: len(items)}
		if err := w.send(ev); err != nil {
			w.finish("cancelled")
			return
		}
	}

	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.ID] = i
	}
	results, err := h.enricher.Enrich(ctx, enrich.Request{StreamID: streamID, Goal: g.goal, Locale: g.loc, Items: items})
	if err != nil {
		logger.Warn("enrich_unavailable", logutil.Fields{"error": err.Error()})
		results = closed()
	}
	for res := range results {
		i, known := index[res.ItemID]
		if !known {
			continue
		}
		items[i] = checklist.Merge(items[i], res.Enrichment)
		patch := map[string]interface{}{"item_id": res.ItemID, "enrichment": res.Enrichment}
		if err := w.send(stream.Event{Status: stream.StatusItemEnhanced, StreamID: streamID, Item: raw(patch)}); err != nil {
			w.finish("cancelled")
			return
		}
	}
	if ctx.Err() != nil {
		w.finish("cancelled")
		return
	}

	done := stream.Event{Status: stream.StatusCompleted, StreamID: streamID, Total: len(items)}
	if g.req.Save {
		list := &checklist.Checklist{ID: uuid.NewString(), Goal: g.goal, Locale: g.loc.String(), Items: items}
		if err := h.save(ctx, g.owner, list, streamID); err != nil {
			logger.Error("checklist_save_failed", err, nil)
			w.fail("could not save checklist")
			return
		}
		done.ChecklistID = list.ID
	}
	if err := w.send(done); err != nil {
		w.finish("cancelled")
		return
	}
	_ = w.done()
	w.finish("completed")
}

func (h *handler) save(ctx context.Context, owner string, list *checklist.Checklist, streamID string) error {
	if err := h.store.SaveChecklist(ctx, owner, list); err != nil {
		return err
	}
	if h.bus != nil {
		evt, err := events.New(events.TypeChecklistSaved, streamID, map[string]string{"id": list.ID, "owner": owner})
		if err == nil {
			err = h.bus.Publish(ctx, evt)
		}
		if err != nil {
			h.logger.Warn("checklist_saved_event", logutil.Fields{"error": err.Error()})
		}
	}
	return nil
}

func (h *handler) listChecklists(c *gin.Context) {
	limit := 20
	if value := c.Query("limit"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	lists, err := h.store.ListChecklists(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if lists == nil {
		lists = []checklist.Checklist{}
	}
	c.JSON(http.StatusOK, gin.H{"checklists": lists})
}

func (h *handler) getChecklist(c *gin.Context) {
	list, err := h.store.GetChecklist(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "checklist not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, checklist.ChecklistResponse{Checklist: *list})
}

func (h *handler) deleteChecklist(c *gin.Context) {
	err := h.store.DeleteChecklist(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "checklist not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) openAPISpec(c *gin.Context) {
	data, contentType, err := openapi.Document(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

func closed() <-chan enrich.Result {
	ch := make(chan enrich.Result)
	close(ch)
	return ch
}
