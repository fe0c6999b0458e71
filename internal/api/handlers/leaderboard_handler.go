package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/database"
)

// LeaderboardHandler はリーダーボード関連のハンドラーを管理する構造体です。
type LeaderboardHandler struct {
	leaderboardRepo database.LeaderboardRepository
}

// NewLeaderboardHandler は新しいLeaderboardHandlerインスタンスを作成します。
func NewLeaderboardHandler(leaderboardRepo database.LeaderboardRepository) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardRepo: leaderboardRepo,
	}
}

// GetLeaderboard は順位順のリーダーボードを取得するハンドラーです。
// GET /api/leaderboard?limit=50
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// limitパラメータを取得（デフォルト50、上限100）
	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	entries, err := h.leaderboardRepo.GetLeaderboard(r.Context(), limit)
	if err != nil {
		log.Printf("LeaderboardHandler Error: リーダーボード取得エラー: %v", err)
		http.Error(w, "リーダーボードの取得に失敗しました", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"entries": entries,
	})
}

// GetStudentEntry は指定した学生のリーダーボードエントリを取得するハンドラーです。
// GET /api/admin/leaderboard/{username}
func (h *LeaderboardHandler) GetStudentEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := mux.Vars(r)["username"]
	if username == "" {
		http.Error(w, "usernameは必須です", http.StatusBadRequest)
		return
	}

	entry, err := h.leaderboardRepo.GetEntryByUsername(r.Context(), username)
	if err != nil {
		log.Printf("LeaderboardHandler Error: エントリ取得エラー: %v", err)
		http.Error(w, "リーダーボードエントリの取得に失敗しました", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, "指定した学生が見つかりません", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"entry":   entry,
	})
}
