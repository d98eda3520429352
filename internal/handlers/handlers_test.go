package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/tags"
	"github.com/emilythestrangee/stackit/backend/internal/testutil"
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

const testUserHeader = "X-Test-User"

type fixture struct {
	db     *gorm.DB
	engine *voting.Engine
	router *gin.Engine
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	engine := voting.New(db)
	h := NewHandler(Deps{DB: db, Engine: engine, Tags: tags.NewCatalog(db, time.Minute)})

	r := gin.New()
	// stands in for AuthMiddleware
	r.Use(func(c *gin.Context) {
		if id, err := uuid.Parse(c.GetHeader(testUserHeader)); err == nil {
			c.Set(middleware.ContextUserID, id)
		}
		c.Next()
	})

	r.GET("/questions", h.Question.GetQuestions)
	r.GET("/tags", h.Tag.GetTags)
	r.GET("/questions/:id/answers", h.Answer.GetAnswers)
	r.GET("/users/:id/followers", h.Follow.GetFollowers)

	p := r.Group("", h.Profile.Ensure())
	p.POST("/questions", h.Question.CreateQuestion)
	p.PUT("/questions/:id", h.Question.UpdateQuestion)
	p.DELETE("/questions/:id", h.Question.DeleteQuestion)
	p.POST("/questions/:id/answers", h.Answer.CreateAnswer)
	p.DELETE("/answers/:id", h.Answer.DeleteAnswer)
	p.POST("/questions/:id/comments", h.Comment.CreateQuestionComment)
	p.DELETE("/comments/:id", h.Comment.DeleteComment)
	p.GET("/notifications", h.Notification.GetNotifications)
	p.POST("/notifications/read-all", h.Notification.MarkAllRead)
	p.POST("/notifications/:id/read", h.Notification.MarkRead)
	p.POST("/bookmarks", h.Bookmark.CreateBookmark)
	p.DELETE("/bookmarks/:targetType/:id", h.Bookmark.DeleteBookmark)
	p.POST("/users/:id/follow", h.Follow.FollowUser)

	m := p.Group("/moderation", h.Moderation.RequireModerator())
	m.PUT("/questions/:id/status", h.Moderation.SetQuestionStatus)
	m.POST("/users/:id/ban", h.Moderation.BanUser)

	return &fixture{db: db, engine: engine, router: r}
}

func (f *fixture) do(t *testing.T, method, path string, as *models.Profile, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set(testUserHeader, as.ID.String())
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) usage(t *testing.T, name string) int {
	t.Helper()
	var tag models.Tag
	require.NoError(t, f.db.Where("name = ?", name).Take(&tag).Error)
	return tag.UsageCount
}

func TestQuestionTagLifecycle(t *testing.T) {
	f := setup(t)
	alice := testutil.Profile(t, f.db, "alice")

	w := f.do(t, http.MethodPost, "/questions", alice, gin.H{
		"title":       "Counting tag usage correctly",
		"description": "Tag counters should follow questions through edits and deletes.",
		"tags":        []string{"Go", "sql", "go"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, []string{"go", "sql"}, created.Tags)
	assert.Equal(t, 1, f.usage(t, "go"))
	assert.Equal(t, 1, f.usage(t, "sql"))

	w = f.do(t, http.MethodPut, "/questions/"+created.ID, alice, gin.H{"tags": []string{"go", "postgres"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, f.usage(t, "go"))
	assert.Equal(t, 0, f.usage(t, "sql"))
	assert.Equal(t, 1, f.usage(t, "postgres"))

	w = f.do(t, http.MethodGet, "/questions?tag=postgres", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list.Total)

	bob := testutil.Profile(t, f.db, "bob")
	w = f.do(t, http.MethodDelete, "/questions/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodDelete, "/questions/"+created.ID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, f.usage(t, "go"))
	assert.Equal(t, 0, f.usage(t, "postgres"))
	assert.Equal(t, 0, testutil.Reload[models.Profile](t, f.db, alice.ID).QuestionsCount)

	w = f.do(t, http.MethodGet, "/questions", nil, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 0, list.Total)
}

func TestDeleteAcceptedAnswer(t *testing.T) {
	f := setup(t)
	alice := testutil.Profile(t, f.db, "alice")
	bob := testutil.Profile(t, f.db, "bob")
	q := testutil.Question(t, f.db, alice, 0)
	a := testutil.Answer(t, f.db, q, bob)

	_, err := f.engine.SetAcceptedAnswer(context.Background(), alice.ID, q.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, testutil.Reload[models.Profile](t, f.db, bob.ID).Reputation)

	w := f.do(t, http.MethodDelete, "/answers/"+a.ID.String(), bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := testutil.Reload[models.Question](t, f.db, q.ID)
	assert.Nil(t, got.AcceptedAnswerID)
	assert.Equal(t, 0, got.AnswersCount)
	assert.Equal(t, 0, testutil.Reload[models.Profile](t, f.db, bob.ID).Reputation)
}

func TestGetAnswersStoreFailure(t *testing.T) {
	f := setup(t)
	alice := testutil.Profile(t, f.db, "alice")
	q := testutil.Question(t, f.db, alice, 0)
	testutil.Answer(t, f.db, q, alice)

	w := f.do(t, http.MethodGet, "/questions/"+q.ID.String()+"/answers", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/questions/"+uuid.NewString()+"/answers", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w = f.do(t, http.MethodGet, "/questions/"+q.ID.String()+"/answers", nil, nil)
	assert.GreaterOrEqual(t, w.Code, http.StatusInternalServerError, w.Body.String())
}

func TestClosedQuestionRejectsAnswers(t *testing.T) {
	f := setup(t)
	alice := testutil.Profile(t, f.db, "alice")
	bob := testutil.Profile(t, f.db, "bob")
	mod := testutil.Profile(t, f.db, "mod", testutil.WithRole(models.RoleModerator))
	q := testutil.Question(t, f.db, alice, 0)

	path := "/moderation/questions/" + q.ID.String() + "/status"
	w := f.do(t, http.MethodPut, path, bob, gin.H{"status": "closed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPut, path, mod, gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, path, mod, gin.H{"status": "closed", "reason": "off topic"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/questions/"+q.ID.String()+"/answers", bob, gin.H{
		"content": "An answer to a question that is already closed.",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var n int64
	f.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", alice.ID, models.NotificationSystem).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestNotifications(t *testing.T) {
	f := setup(t)
	alice := testutil.Profile(t, f.db, "alice")
	bob := testutil.Profile(t, f.db, "bob")
	q := testutil.Question(t, f.db, alice, 0)

	w := f.do(t, http.MethodPost, "/questions/"+q.ID.String()+"/answers", bob, gin.H{
		"content": "Use a row lock and an in-place increment.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unread_count"`
	}
	w = f.do(t, http.MethodGet, "/notifications", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, models.NotificationAnswer, resp.Notifications[0].Type)
	assert.EqualValues(t, 1, resp.UnreadCount)

	w = f.do(t, http.MethodPost, "/notifications/"+resp.Notifications[0].ID.String()+"/read", bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/notifications/read-all", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/notifications?unread=true", alice, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Notifications)
	assert.EqualValues(t, 0, resp.UnreadCount)
}

func TestBookmarks(t *testing.T) {
	f := setup(t)
	alice := testutil.Profile(t, f.db, "alice")
	q := testutil.Question(t, f.db, alice, 0)

	body := gin.H{"target_id": q.ID.String(), "target_type": "question"}
	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodPost, "/bookmarks", alice, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	var n int64
	f.db.Model(&models.Bookmark{}).Where("user_id = ?", alice.ID).Count(&n)
	assert.EqualValues(t, 1, n)

	w := f.do(t, http.MethodPost, "/bookmarks", alice, gin.H{"target_id": uuid.NewString(), "target_type": "answer"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, "/bookmarks/question/"+q.ID.String(), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	f.db.Model(&models.Bookmark{}).Where("user_id = ?", alice.ID).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestFollowIsIdempotent(t *testing.T) {
	f := setup(t)
	alice := testutil.Profile(t, f.db, "alice")
	bob := testutil.Profile(t, f.db, "bob")

	w := f.do(t, http.MethodPost, "/users/"+alice.ID.String()+"/follow", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for i := 0; i < 2; i++ {
		w = f.do(t, http.MethodPost, "/users/"+alice.ID.String()+"/follow", bob, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	var follows, notes int64
	f.db.Model(&models.Follow{}).Where("following_id = ?", alice.ID).Count(&follows)
	f.db.Model(&models.Notification{}).Where("user_id = ? AND type = ?", alice.ID, models.NotificationFollow).Count(&notes)
	assert.EqualValues(t, 1, follows)
	assert.EqualValues(t, 1, notes)
}

func TestBanUser(t *testing.T) {
	f := setup(t)
	mod := testutil.Profile(t, f.db, "mod", testutil.WithRole(models.RoleModerator))
	admin := testutil.Profile(t, f.db, "admin", testutil.WithRole(models.RoleAdmin))
	bob := testutil.Profile(t, f.db, "bob")

	w := f.do(t, http.MethodPost, "/moderation/users/"+mod.ID.String()+"/ban", mod, gin.H{"banned": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/moderation/users/"+admin.ID.String()+"/ban", mod, gin.H{"banned": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/moderation/users/"+bob.ID.String()+"/ban", mod, gin.H{"banned": true, "reason": "spam"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, testutil.Reload[models.Profile](t, f.db, bob.ID).IsBanned)

	w = f.do(t, http.MethodPost, "/questions", bob, gin.H{
		"title":       "Banned users cannot post",
		"description": "This request should be rejected before it is stored.",
		"tags":        []string{"go"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var logs int64
	f.db.Model(&models.ModerationLog{}).Where("target_id = ? AND action = ?", bob.ID, models.ModerationBan).Count(&logs)
	assert.EqualValues(t, 1, logs)
}

func TestDeleteCommentRequiresOwner(t *testing.T) {
	f := setup(t)
	alice := testutil.Profile(t, f.db, "alice")
	bob := testutil.Profile(t, f.db, "bob")
	mod := testutil.Profile(t, f.db, "mod", testutil.WithRole(models.RoleModerator))
	q := testutil.Question(t, f.db, alice, 0)

	w := f.do(t, http.MethodPost, "/questions/"+q.ID.String()+"/comments", bob, gin.H{"content": "Which database?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))

	w = f.do(t, http.MethodDelete, "/comments/"+comment.ID.String(), alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodDelete, "/comments/"+comment.ID.String(), mod, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
