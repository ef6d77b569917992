// Minimal end-to-end integration test for the DupeLab API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8080/v1")
	mysqlDSN = getenv("MYSQL_DSN", "dupelab:dev@tcp(localhost:3306)/dupelab?parseTime=true")
	password = "smoke-test-pass1"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	db := mustMySQL()

	proposerToken, _ := register()
	modToken, modID := register()
	promote(db, modID) // flip the moderator flag behind the API's back
	modToken = refresh(modToken)

	proposalID := submitProposal(proposerToken)
	approveProposal(modToken, proposalID)
	perfumeID := findApprovedPerfume(proposerToken, proposalID)

	castVote(proposerToken, perfumeID)
	checkVote(proposerToken, perfumeID)

	groupID := createGroup(proposerToken)
	joinForbidden(modToken, groupID)

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- auth

func register() (token, id string) {
	var resp struct {
		Token string
		User  struct{ ID string }
	}
	doJSON("POST", "/auth/register", map[string]any{
		"email":       uuid.NewString() + "@smoke.test",
		"password":    password,
		"displayName": "Smoke Tester",
	}, &resp, http.StatusCreated)
	if resp.Token == "" {
		log.Fatal("register: empty token")
	}
	return resp.Token, resp.User.ID
}

func promote(db *gorm.DB, userID string) {
	if err := db.Table("users").Where("id = ?", userID).
		Update("is_moderator", true).Error; err != nil {
		log.Fatalf("promote: %v", err)
	}
}

func refresh(tok string) string {
	var resp struct{ Token string }
	doAuth(tok, "POST", "/auth/refresh", nil, &resp, http.StatusOK)
	if resp.Token == "" {
		log.Fatal("refresh: empty token")
	}
	return resp.Token
}

// ----------------------------- proposals

func submitProposal(tok string) string {
	var resp struct{ ID string }
	doAuth(tok, "POST", "/proposals", map[string]any{
		"action": "create",
		"data": map[string]any{
			"tipo":   "original",
			"nombre": "Smoke Khamrah " + uuid.NewString()[:8],
			"marca":  "Lattafa",
		},
		"reason": "integration test",
	}, &resp, http.StatusCreated)
	if resp.ID == "" {
		log.Fatal("proposals: empty id")
	}
	return resp.ID
}

func approveProposal(tok, id string) {
	doAuth(tok, "POST", "/proposals/"+id+"/approve", map[string]any{
		"notes": "smoke approved",
	}, nil, http.StatusOK)
}

func findApprovedPerfume(tok, proposalID string) string {
	var p struct{ Status string }
	doAuth(tok, "GET", "/proposals/"+proposalID, nil, &p, http.StatusOK)
	if p.Status != "approved" {
		log.Fatalf("proposal: want approved got %s", p.Status)
	}

	var search struct {
		Data []struct {
			ID     string
			Nombre string
		}
	}
	doAuth(tok, "GET", "/perfumes?q=Smoke+Khamrah", nil, &search, http.StatusOK)
	if len(search.Data) == 0 {
		log.Fatal("perfumes: approved entry not searchable")
	}
	return search.Data[0].ID
}

// ----------------------------- votes

func castVote(tok, perfumeID string) {
	doAuth(tok, "PUT", "/perfumes/"+perfumeID+"/votes", map[string]any{
		"calidad":  8,
		"duracion": 7,
	}, nil, http.StatusOK)
}

func checkVote(tok, perfumeID string) {
	var v struct{ Calidad *uint8 }
	doAuth(tok, "GET", "/perfumes/"+perfumeID+"/votes/mine", nil, &v, http.StatusOK)
	if v.Calidad == nil || *v.Calidad != 8 {
		log.Fatal("votes: stored vote mismatch")
	}
}

// ----------------------------- groups

func createGroup(tok string) string {
	var resp struct{ ID string }
	doAuth(tok, "POST", "/groups", map[string]any{
		"name": "Smoke Hunters",
	}, &resp, http.StatusCreated)
	if resp.ID == "" {
		log.Fatal("groups: empty id")
	}
	return resp.ID
}

func joinForbidden(tok, groupID string) {
	// Not a member, no invite: the gate must refuse.
	doAuth(tok, "GET", "/groups/"+groupID+"/stores", nil, nil, http.StatusForbidden)
}

// ----------------------------- helpers

func mustMySQL() *gorm.DB {
	db, err := gorm.Open(mysql.Open(mysqlDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

func doAuth(token, method, path string, body, out any, want int) {
	doReq(method, path, token, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
