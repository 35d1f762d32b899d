package handler

import (
	"context"
	"invest-ai-go/internal/config"
	"invest-ai-go/internal/model"
	"invest-ai-go/internal/repository"
	"invest-ai-go/internal/service"
	"invest-ai-go/pkg/database"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSession_ServedFromRedisCache(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "handler.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := repository.NewCachedConversationRepository(repository.NewConversationRepository(db), rdb, time.Minute)
	svc := service.NewConversationService(repo)
	require.NoError(t, svc.AddMessageToConversation(context.Background(), &model.ChatMessage{SessionID: "cached", UserQuery: "How is AAPL?", AIResponse: "Up 2%."}))
	r := sessionRouter(svc)

	w := perform(r, http.MethodGet, "/chat/sessions/cached", nil)
	require.Equal(t, http.StatusOK, w.Code)
	before := mr.CommandCount()

	// 第二次请求只读 Redis
	require.NoError(t, db.Migrator().DropTable(&model.ChatMessage{}, &model.ChatSession{}))
	w = perform(r, http.MethodGet, "/chat/sessions/cached", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, mr.CommandCount())

	body := decode(t, w)
	assert.Equal(t, "cached", body["session_id"])
	messages := body["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, "How is AAPL?", messages[0].(map[string]interface{})["user_query"])
}
