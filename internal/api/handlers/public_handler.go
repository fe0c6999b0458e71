package handlers

import (
	"fmt"
	"log"
	"net/http"
)

// PublicHandler はヘルスチェック用の公開エンドポイントです。
func PublicHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("Request to public endpoint: /api/public")
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "classroom-sync-backend is running")
}
