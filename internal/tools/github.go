package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tam-chat/internal/agent"
)

const (
	defaultGitHubAPIBase = "https://api.github.com"
	githubAPIVersion     = "2022-11-28"
	userAgent            = "tam-agent"
)

type GitHub struct {
	APIBase     string
	Token       string
	DefaultUser string
	HTTP        *http.Client
}

type repoQuery struct {
	User        string `json:"user"`
	Visibility  string `json:"visibility"`
	Affiliation string `json:"affiliation"`
	PerPage     int    `json:"per_page"`
	Page        int    `json:"page"`
}

type githubRepo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Private     bool   `json:"private"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Archived    bool   `json:"archived"`
	PushedAt    string `json:"pushed_at"`
	Visibility  string `json:"visibility"`
}

func (g *GitHub) ReposHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_github_repos",
			Description: "GitHub 리포지토리 목록 조회 (인증 사용자 또는 특정 사용자)",
			Parameters: objectSchema(map[string]any{
				"user":        prop("string", "특정 사용자명 (선택)"),
				"visibility":  prop("string", "all|public|private (선택)"),
				"affiliation": prop("string", "owner,collaborator,organization_member (선택)"),
				"per_page":    prop("integer", "페이지당 개수 (선택)"),
				"page":        prop("integer", "페이지 번호 (선택)"),
			}),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var q repoQuery
			if err := decodeArgs(args, &q); err != nil {
				return nil, err
			}
			return g.Repos(ctx, q)
		},
	}
}

// authHeader classic 토큰(ghp_/gho_)은 token, 그 외는 Bearer.
func authHeader(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	lower := strings.ToLower(token)
	if strings.HasPrefix(lower, "ghp_") || strings.HasPrefix(lower, "gho_") {
		return "token " + token
	}
	return "Bearer " + token
}

func (g *GitHub) headers(withAuth bool) map[string]string {
	h := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": githubAPIVersion,
		"User-Agent":           userAgent,
	}
	if withAuth {
		if v := authHeader(g.Token); v != "" {
			h["Authorization"] = v
		}
	}
	return h
}

func (g *GitHub) apiBase() string {
	if strings.TrimSpace(g.APIBase) == "" {
		return defaultGitHubAPIBase
	}
	return g.APIBase
}

func (g *GitHub) Repos(ctx context.Context, q repoQuery) (map[string]any, error) {
	if q.Visibility == "" {
		q.Visibility = "all"
	}
	if q.PerPage <= 0 {
		q.PerPage = 50
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	params := url.Values{}
	params.Set("per_page", strconv.Itoa(q.PerPage))
	params.Set("page", strconv.Itoa(q.Page))
	var endpoint string
	if user := strings.TrimSpace(q.User); user != "" {
		endpoint = joinURL(g.apiBase(), "/users/"+url.PathEscape(user)+"/repos")
		params.Set("type", q.Visibility)
	} else {
		endpoint = joinURL(g.apiBase(), "/user/repos")
		params.Set("visibility", q.Visibility)
		if q.Affiliation != "" {
			params.Set("affiliation", q.Affiliation)
		}
	}

	resp, err := getJSON(ctx, g.HTTP, endpoint, params, g.headers(true))
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		return reposPayload(resp.Body, "")
	}

	// 미인증 공개 조회는 기본 사용자로 폴백
	if resp.Status == http.StatusUnauthorized && q.User == "" && q.Visibility == "public" && g.DefaultUser != "" {
		fb := url.Values{}
		fb.Set("per_page", strconv.Itoa(q.PerPage))
		fb.Set("page", strconv.Itoa(q.Page))
		fb.Set("type", "public")
		fbResp, err := getJSON(ctx, g.HTTP, joinURL(g.apiBase(), "/users/"+url.PathEscape(g.DefaultUser)+"/repos"), fb, g.headers(false))
		if err != nil {
			return nil, err
		}
		if fbResp.OK() {
			return reposPayload(fbResp.Body, fmt.Sprintf("no token/auth; fell back to GITHUB_DEFAULT_USER=%s", g.DefaultUser))
		}
	}

	return map[string]any{
		"success":     false,
		"status_code": resp.Status,
		"error":       string(resp.Body),
	}, nil
}

func reposPayload(body []byte, note string) (map[string]any, error) {
	var repos []githubRepo
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, fmt.Errorf("decode repos: %w", err)
	}
	simplified := make([]map[string]any, 0, len(repos))
	for _, r := range repos {
		visibility := r.Visibility
		if visibility == "" {
			visibility = "public"
			if r.Private {
				visibility = "private"
			}
		}
		simplified = append(simplified, map[string]any{
			"id":          r.ID,
			"name":        r.Name,
			"full_name":   r.FullName,
			"private":     r.Private,
			"html_url":    r.HTMLURL,
			"description": r.Description,
			"language":    r.Language,
			"archived":    r.Archived,
			"pushed_at":   r.PushedAt,
			"visibility":  visibility,
		})
	}
	out := map[string]any{"success": true, "repos": simplified, "count": len(simplified)}
	if note != "" {
		out["note"] = note
	}
	return out, nil
}
