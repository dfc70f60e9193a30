package confluence

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"testing"
)

func TestOperations_RegistryComplete(t *testing.T) {
	if len(Operations) != len(descriptors) {
		t.Fatalf("Operations has %d entries, descriptors has %d", len(Operations), len(descriptors))
	}

	seen := make(map[string]bool)
	for _, op := range Operations {
		d := op.Descriptor()
		if d.Name == "" || d.Description == "" {
			t.Errorf("operation %d has empty name or description", int(op))
		}
		if seen[d.Name] {
			t.Errorf("duplicate tool name %q", d.Name)
		}
		seen[d.Name] = true

		if !strings.HasPrefix(d.Path, "/") || strings.Contains(d.Path, "..") {
			t.Errorf("%s: bad path %q", d.Name, d.Path)
		}
		for _, p := range d.Params {
			if p.In == InPath && !strings.Contains(d.Path, "{"+p.Name+"}") {
				t.Errorf("%s: path param %q has no placeholder in %q", d.Name, p.Name, d.Path)
			}
		}
		if d.ReadOnly && d.Method != http.MethodGet {
			t.Errorf("%s: read-only operation uses %s", d.Name, d.Method)
		}
		if d.Destructive && d.Method != http.MethodDelete {
			t.Errorf("%s: destructive operation uses %s", d.Name, d.Method)
		}
	}

	for _, name := range []string{
		"get_confluence_spaces", "get_confluence_page", "search_confluence_pages",
		"create_confluence_page", "update_confluence_page", "delete_confluence_page",
		"get_page_attachments", "delete_page_attachment", "get_page_comments",
	} {
		if !seen[name] {
			t.Errorf("missing tool %q", name)
		}
	}
}

func TestLookup(t *testing.T) {
	op, ok := Lookup("get_confluence_page")
	if !ok || op != GetPage {
		t.Fatalf("Lookup(get_confluence_page) = %v, %v", op, ok)
	}

	for _, name := range []string{"", "GET_CONFLUENCE_PAGE", "get_confluence_page ", "no_such_tool", "add_page_attachment"} {
		if _, ok := Lookup(name); ok {
			t.Errorf("Lookup(%q) should fail", name)
		}
	}
}

func TestOperation_String(t *testing.T) {
	if GetCurrentUser.String() != "get_current_user" {
		t.Errorf("String() = %q", GetCurrentUser.String())
	}
	if Operation(999).String() != "Operation(999)" {
		t.Errorf("String() = %q", Operation(999).String())
	}
}

func TestBuildRequest_PathAndQuery(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		args Arguments
		want string
	}{
		{"page with expand", GetPage, Arguments{"page_id": "123", "expand": "body.storage"}, "/wiki/rest/api/content/123?expand=body.storage"},
		{"page without expand", GetPage, Arguments{"page_id": "123"}, "/wiki/rest/api/content/123"},
		{"page id escaped", GetPage, Arguments{"page_id": "a/b c"}, "/wiki/rest/api/content/a%2Fb%20c"},
		{"spaces default limit", GetSpaces, Arguments{}, "/wiki/rest/api/space?limit=25"},
		{"spaces explicit", GetSpaces, Arguments{"limit": float64(10), "start": float64(20), "type": "global"}, "/wiki/rest/api/space?limit=10&start=20&type=global"},
		{"space key", GetSpace, Arguments{"space_key": "~jdoe"}, "/wiki/rest/api/space/~jdoe"},
		{"find page", FindPage, Arguments{"space_key": "DOCS", "title": "Meeting Notes"}, "/wiki/rest/api/content?spaceKey=DOCS&title=Meeting+Notes&type=page"},
		{"children", GetPageChildren, Arguments{"page_id": "42"}, "/wiki/rest/api/content/42/child/page?limit=25"},
		{"attachments", GetPageAttachments, Arguments{"page_id": "42", "media_type": "image/png"}, "/wiki/rest/api/content/42/child/attachment?limit=50&mediaType=image%2Fpng"},
		{"delete attachment", DeleteAttachment, Arguments{"attachment_id": "att9"}, "/wiki/rest/api/content/att9"},
		{"comments", GetPageComments, Arguments{"page_id": "42", "limit": float64(5)}, "/wiki/rest/api/content/42/child/comment?limit=5"},
		{"current user", GetCurrentUser, nil, "/wiki/rest/api/user/current"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.op.BuildRequest(tt.args)
			if err != nil {
				t.Fatalf("BuildRequest error = %v", err)
			}
			if got := req.URL(""); got != tt.want {
				t.Errorf("URL = %q, want %q", got, tt.want)
			}
			if req.Method != tt.op.Descriptor().Method {
				t.Errorf("Method = %q", req.Method)
			}
		})
	}
}

func TestBuildRequest_MissingPathParam(t *testing.T) {
	for _, args := range []Arguments{{}, {"page_id": ""}, {"page_id": nil}} {
		_, err := DeletePage.BuildRequest(args)
		var argErr *ArgumentError
		if !errors.As(err, &argErr) || argErr.Param != "page_id" {
			t.Errorf("args %v: expected ArgumentError for page_id, got %v", args, err)
		}
	}
}

func TestBuildRequest_SearchCQL(t *testing.T) {
	tests := []struct {
		name string
		args Arguments
		want string
	}{
		{"cql", Arguments{"cql": "type = page"}, "(type = page)"},
		{"cql wins", Arguments{"cql": "type = page", "query": "ignored"}, "(type = page)"},
		{"query", Arguments{"query": `say "hi"`}, `(text ~ "say \"hi\"" OR title ~ "say \"hi\"")`},
		{"space", Arguments{"cql": "label = x", "space_key": "DOCS"}, `(label = x) AND space = "DOCS"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := SearchPages.BuildRequest(tt.args)
			if err != nil {
				t.Fatalf("BuildRequest error = %v", err)
			}
			if got := req.Query.Get("cql"); got != tt.want {
				t.Errorf("cql = %q, want %q", got, tt.want)
			}
			if req.Query.Has("query") || req.Query.Has("space_key") {
				t.Errorf("raw search inputs leaked into query: %v", req.Query)
			}
			if req.Query.Get("limit") != "25" {
				t.Errorf("limit = %q", req.Query.Get("limit"))
			}
		})
	}

	_, err := SearchPages.BuildRequest(Arguments{"space_key": "DOCS"})
	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Errorf("expected ArgumentError without query or cql, got %v", err)
	}
}

func TestBuildRequest_CreatePage(t *testing.T) {
	req, err := CreatePage.BuildRequest(Arguments{
		"space_key":      "DOCS",
		"title":          "New",
		"content":        "<p>hi</p>",
		"parent_page_id": "7",
	})
	if err != nil {
		t.Fatalf("BuildRequest error = %v", err)
	}
	if req.Method != http.MethodPost || req.Path != "/wiki/rest/api/content" {
		t.Errorf("got %s %s", req.Method, req.Path)
	}
	body, ok := req.Body.(PageBody)
	if !ok {
		t.Fatalf("Body is %T", req.Body)
	}
	if body.Type != "page" || body.Title != "New" || body.Space.Key != "DOCS" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Body.Storage.Value != "<p>hi</p>" || body.Body.Storage.Representation != "storage" {
		t.Errorf("unexpected storage %+v", body.Body.Storage)
	}
	if len(body.Ancestors) != 1 || body.Ancestors[0].ID != "7" {
		t.Errorf("unexpected ancestors %+v", body.Ancestors)
	}
	if body.Version != nil {
		t.Errorf("create must not carry a version")
	}
}

func TestBuildRequest_UpdatePage(t *testing.T) {
	req, err := UpdatePage.BuildRequest(Arguments{
		"page_id":            "99",
		"title":              "Renamed",
		"new_version_number": float64(6),
	})
	if err != nil {
		t.Fatalf("BuildRequest error = %v", err)
	}
	if req.Method != http.MethodPut || req.Path != "/wiki/rest/api/content/99" {
		t.Errorf("got %s %s", req.Method, req.Path)
	}
	body := req.Body.(PageBody)
	if body.ID != "99" || body.Version == nil || body.Version.Number != 6 {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Body != nil {
		t.Errorf("omitted content must not send a body")
	}

	_, err = UpdatePage.BuildRequest(Arguments{"page_id": "99", "title": "x", "new_version_number": 2.5})
	var argErr *ArgumentError
	if !errors.As(err, &argErr) || argErr.Param != "new_version_number" {
		t.Errorf("expected ArgumentError for fractional version, got %v", err)
	}
}

func TestArguments(t *testing.T) {
	args := Arguments{"s": "x", "n": float64(3), "f": 1.5, "b": true, "null": nil}

	if v, ok := args.String("n"); !ok || v != "3" {
		t.Errorf("String(n) = %q, %v", v, ok)
	}
	if v, _ := args.String("f"); v != "1.5" {
		t.Errorf("String(f) = %q", v)
	}
	if v, _ := args.String("b"); v != "true" {
		t.Errorf("String(b) = %q", v)
	}
	if _, ok := args.String("null"); ok {
		t.Error("String(null) should report absent")
	}
	if _, ok := args.String("missing"); ok {
		t.Error("String(missing) should report absent")
	}
	if n, ok := args.Int("n"); !ok || n != 3 {
		t.Errorf("Int(n) = %d, %v", n, ok)
	}
	if _, ok := args.Int("f"); ok {
		t.Error("Int(f) should fail for 1.5")
	}
}

func TestArguments_IntRejectsOutOfRange(t *testing.T) {
	args := Arguments{"huge": 1e300, "neg": -1e300, "big64": int64(1) << 40, "bigstr": "99999999999"}
	for _, name := range []string{"huge", "neg", "big64", "bigstr"} {
		if n, ok := args.Int(name); ok {
			t.Errorf("Int(%s) = %d, want failure", name, n)
		}
	}
	if n, ok := (Arguments{"v": float64(math.MaxInt32)}).Int("v"); !ok || n != math.MaxInt32 {
		t.Errorf("Int(MaxInt32) = %d, %v", n, ok)
	}
}

func TestBuildRequest_UpdatePageHugeVersion(t *testing.T) {
	_, err := UpdatePage.BuildRequest(Arguments{"page_id": "99", "title": "x", "new_version_number": 1e300})
	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected ArgumentError, got %v", err)
	}
	if argErr.Reason != "must be an integer" {
		t.Errorf("Reason = %q, want %q", argErr.Reason, "must be an integer")
	}
}
