package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) swaggerUI(w http.ResponseWriter, r *http.Request) {
	const page = `<!doctype html>
<html lang="id">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>CeritaKu API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/docs/openapi.json',
      dom_id: '#swagger-ui'
    });
  </script>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (h *Handler) swaggerSpec(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, openAPISpec(requestBaseURL(r)))
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); forwarded != "" {
		scheme = strings.Split(forwarded, ",")[0]
		scheme = strings.TrimSpace(scheme)
	}

	host := strings.TrimSpace(r.Host)
	if host == "" {
		host = "localhost:8080"
	}
	return scheme + "://" + host
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func jsonContent(schema map[string]any) map[string]any {
	return map[string]any{
		"application/json": map[string]any{"schema": schema},
	}
}

func okResponse(description, schema string) map[string]any {
	return map[string]any{"description": description, "content": jsonContent(ref(schema))}
}

func errResponse(description string) map[string]any {
	return map[string]any{"description": description, "content": jsonContent(ref("ErrorResponse"))}
}

func jsonBody(schema string) map[string]any {
	return map[string]any{"required": true, "content": jsonContent(ref(schema))}
}

func idParam(description string) []map[string]any {
	return []map[string]any{
		{
			"name":        "id",
			"in":          "path",
			"required":    true,
			"description": description,
			"schema":      map[string]any{"type": "string"},
		},
	}
}

func arrayOf(schema string) map[string]any {
	return map[string]any{"type": "array", "items": ref(schema)}
}

func openAPISpec(serverURL string) map[string]any {
	str := map[string]any{"type": "string"}
	integer := map[string]any{"type": "integer"}
	boolean := map[string]any{"type": "boolean"}
	millis := map[string]any{"type": "integer", "format": "int64", "description": "Unix milliseconds"}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       "CeritaKu API",
			"description": "Profil, cerita, tanya jawab, poin dan hadiah pembaca anak",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": serverURL},
		},
		"paths": map[string]any{
			"/healthz": map[string]any{
				"get": map[string]any{
					"summary":     "Health check",
					"operationId": "healthz",
					"responses":   map[string]any{"200": okResponse("OK", "HealthResponse")},
				},
			},
			"/api/v1/catalog": map[string]any{
				"get": map[string]any{
					"summary":     "Interests, reading levels and point rules",
					"operationId": "getCatalog",
					"responses":   map[string]any{"200": okResponse("OK", "Catalog")},
				},
			},
			"/api/v1/profile": map[string]any{
				"get": map[string]any{
					"summary":     "Current reader profile",
					"operationId": "getProfile",
					"responses":   map[string]any{"200": okResponse("OK", "Profile")},
				},
				"put": map[string]any{
					"summary":     "Replace the reader profile",
					"operationId": "putProfile",
					"requestBody": jsonBody("Profile"),
					"responses": map[string]any{
						"200": okResponse("Saved", "Profile"),
						"400": errResponse("Invalid profile"),
						"500": errResponse("Storage error"),
					},
				},
			},
			"/api/v1/home": map[string]any{
				"get": map[string]any{
					"summary":     "Home page: profile, points and the three newest stories",
					"operationId": "getHome",
					"responses":   map[string]any{"200": okResponse("OK", "HomeView")},
				},
			},
			"/api/v1/progress": map[string]any{
				"get": map[string]any{
					"summary":     "Reading progress summary",
					"operationId": "getProgress",
					"responses":   map[string]any{"200": okResponse("OK", "ProgressView")},
				},
			},
			"/api/v1/stories": map[string]any{
				"get": map[string]any{
					"summary":     "All stories, newest first",
					"operationId": "listStories",
					"responses":   map[string]any{"200": okResponse("OK", "StoryList")},
				},
				"post": map[string]any{
					"summary":     "Generate a story for an interest or custom topic",
					"operationId": "generateStory",
					"requestBody": jsonBody("GenerateStoryRequest"),
					"responses": map[string]any{
						"201": okResponse("Created", "Story"),
						"400": errResponse("No topic given"),
						"503": errResponse("Content generation unavailable"),
						"500": errResponse("Storage error"),
					},
				},
			},
			"/api/v1/stories/{id}": map[string]any{
				"get": map[string]any{
					"summary":     "One story",
					"operationId": "getStory",
					"parameters":  idParam("Story id"),
					"responses": map[string]any{
						"200": okResponse("OK", "Story"),
						"404": errResponse("Unknown story"),
					},
				},
			},
			"/api/v1/stories/{id}/read": map[string]any{
				"post": map[string]any{
					"summary":     "Mark a story read; credits 50 points the first time",
					"operationId": "readStory",
					"parameters":  idParam("Story id"),
					"responses": map[string]any{
						"200": okResponse("Marked or already read", "ReadResult"),
						"404": errResponse("Unknown story"),
						"500": errResponse("Storage error"),
					},
				},
			},
			"/api/v1/questions": map[string]any{
				"get": map[string]any{
					"summary":     "All questions, newest first",
					"operationId": "listQuestions",
					"responses":   map[string]any{"200": okResponse("OK", "QAndAList")},
				},
				"post": map[string]any{
					"summary":     "Ask a question; credits 25 points",
					"operationId": "askQuestion",
					"requestBody": jsonBody("AskRequest"),
					"responses": map[string]any{
						"201": okResponse("Created", "QAndA"),
						"400": errResponse("Empty question"),
						"503": errResponse("Content generation unavailable"),
						"500": errResponse("Storage error"),
					},
				},
			},
			"/api/v1/rewards": map[string]any{
				"get": map[string]any{
					"summary":     "Unlocked and available rewards",
					"operationId": "getRewards",
					"responses":   map[string]any{"200": okResponse("OK", "RewardsView")},
				},
			},
			"/api/v1/rewards/{id}/unlock": map[string]any{
				"post": map[string]any{
					"summary":     "Spend points on a reward",
					"operationId": "unlockReward",
					"parameters":  idParam("Reward id"),
					"responses": map[string]any{
						"200": okResponse("Outcome in the status field", "UnlockResult"),
						"500": errResponse("Storage error"),
					},
				},
			},
			"/api/v1/state": map[string]any{
				"get": map[string]any{
					"summary":     "Export every collection",
					"operationId": "exportState",
					"responses":   map[string]any{"200": okResponse("OK", "State")},
				},
				"put": map[string]any{
					"summary":     "Replace every collection",
					"operationId": "restoreState",
					"requestBody": jsonBody("State"),
					"responses": map[string]any{
						"200": okResponse("Restored", "State"),
						"400": errResponse("Invalid state"),
						"500": errResponse("Storage error"),
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"HealthResponse": map[string]any{
					"type":       "object",
					"properties": map[string]any{"status": str},
				},
				"ErrorResponse": map[string]any{
					"type":       "object",
					"properties": map[string]any{"error": str},
				},
				"ReadingLevel": map[string]any{
					"type": "string",
					"enum": []string{"Pemula", "Menengah", "Mahir"},
				},
				"Catalog": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"interests":       map[string]any{"type": "array", "items": str},
						"readingLevels":   arrayOf("ReadingLevel"),
						"storyReadPoints": integer,
						"questionPoints":  integer,
					},
				},
				"Profile": map[string]any{
					"type":     "object",
					"required": []string{"age", "classLevel", "level"},
					"properties": map[string]any{
						"name":       str,
						"age":        map[string]any{"type": "integer", "minimum": 6, "maximum": 13},
						"classLevel": map[string]any{"type": "integer", "minimum": 1, "maximum": 6},
						"level":      ref("ReadingLevel"),
						"interests":  map[string]any{"type": "array", "items": str, "uniqueItems": true},
					},
				},
				"Story": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":        str,
						"title":     str,
						"content":   str,
						"imageUrl":  str,
						"level":     ref("ReadingLevel"),
						"interest":  str,
						"isRead":    boolean,
						"timestamp": millis,
					},
				},
				"StoryList": map[string]any{
					"type":       "object",
					"properties": map[string]any{"stories": arrayOf("Story")},
				},
				"QAndA": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":        str,
						"question":  str,
						"answer":    str,
						"imageUrl":  str,
						"timestamp": millis,
					},
				},
				"QAndAList": map[string]any{
					"type":       "object",
					"properties": map[string]any{"qAndAs": arrayOf("QAndA")},
				},
				"Reward": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":       str,
						"name":     str,
						"type":     map[string]any{"type": "string", "enum": []string{"sticker", "avatar", "badge"}},
						"cost":     integer,
						"unlocked": boolean,
						"emoji":    str,
					},
				},
				"GenerateStoryRequest": map[string]any{
					"type":        "object",
					"description": "customTopic wins over interest when both are set.",
					"properties": map[string]any{
						"interest":    str,
						"customTopic": str,
					},
				},
				"AskRequest": map[string]any{
					"type":       "object",
					"required":   []string{"question"},
					"properties": map[string]any{"question": str},
				},
				"ReadResult": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"status": map[string]any{"type": "string", "enum": []string{"marked", "already_read"}},
						"story":  ref("Story"),
						"points": integer,
					},
				},
				"UnlockResult": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"status": map[string]any{
							"type": "string",
							"enum": []string{"unlocked", "not_found", "already_unlocked", "insufficient_points"},
						},
						"reward": ref("Reward"),
						"points": integer,
					},
				},
				"HomeView": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"profile":       ref("Profile"),
						"points":        integer,
						"recentStories": arrayOf("Story"),
					},
				},
				"RewardTarget": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"reward":       ref("Reward"),
						"pointsNeeded": integer,
						"affordable":   boolean,
					},
				},
				"ProgressView": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"profile":         ref("Profile"),
						"points":          integer,
						"storiesRead":     integer,
						"questionsAsked":  integer,
						"unlockedRewards": arrayOf("Reward"),
						"recentRead":      arrayOf("Story"),
						"recentQAndAs":    arrayOf("QAndA"),
						"nextReward":      ref("RewardTarget"),
					},
				},
				"RewardsView": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"points":    integer,
						"unlocked":  arrayOf("Reward"),
						"available": arrayOf("Reward"),
					},
				},
				"State": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"profile": ref("Profile"),
						"stories": arrayOf("Story"),
						"rewards": arrayOf("Reward"),
						"points":  map[string]any{"type": "integer", "minimum": 0},
						"qAndAs":  arrayOf("QAndA"),
					},
				},
			},
		},
	}
}
