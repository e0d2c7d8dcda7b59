package rest

import (
	"net/http"
	"net/url"
	"strings"
)

// getAPIRoot returns the API version prefix of the request path.
func getAPIRoot(r *http.Request) string {
	root, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")

	return "/" + root
}

// urlList returns the URL of every named entry of a collection.
func urlList(r *http.Request, collection string, names []string) []string {
	endpoint, _ := url.JoinPath(getAPIRoot(r), collection)

	urls := []string{}

	for _, name := range names {
		entryURL, _ := url.JoinPath(endpoint, name)
		urls = append(urls, entryURL)
	}

	return urls
}

// isRecursive checks whether the request asks for full objects instead of URLs.
func isRecursive(r *http.Request) bool {
	return r.URL.Query().Get("recursion") == "1"
}
