// Package confluence holds the static registry of remote Confluence
// operations and the REST client that executes them.
package confluence

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// APIPrefix is prepended to every operation path. The origin carries no
// path of its own, so the /wiki segment lives here.
const APIPrefix = "/wiki/rest/api"

// Operation is one remote Confluence operation. Each constant is a
// distinct variant with its own descriptor and request shape.
type Operation int

const (
	GetSpaces Operation = iota + 1
	GetSpace
	GetPage
	FindPage
	SearchPages
	CreatePage
	UpdatePage
	DeletePage
	GetPageChildren
	GetPageAttachments
	DeleteAttachment
	GetPageComments
	GetCurrentUser
)

// Operations lists every registered operation in listing order.
var Operations = []Operation{
	GetSpaces,
	GetSpace,
	GetPage,
	FindPage,
	SearchPages,
	CreatePage,
	UpdatePage,
	DeletePage,
	GetPageChildren,
	GetPageAttachments,
	DeleteAttachment,
	GetPageComments,
	GetCurrentUser,
}

// Param locations.
const (
	InPath  = "path"
	InQuery = "query"
	InBody  = "body"
)

// Param types, as they appear in the tool input schema.
const (
	TypeString = "string"
	TypeNumber = "number"
)

// Param describes one tool argument and where it lands in the request.
type Param struct {
	Name        string
	Type        string // string, number
	Description string
	Required    bool
	In          string // path, query, body
	Key         string // query key when it differs from Name
	Default     any
	Enum        []string
	Minimum     *float64
	Maximum     *float64
}

// QueryKey returns the upstream query parameter name.
func (p Param) QueryKey() string {
	if p.Key != "" {
		return p.Key
	}
	return p.Name
}

// Descriptor is the static description of an operation.
type Descriptor struct {
	Name        string
	Description string
	Method      string
	Path        string // relative to APIPrefix, with {param} placeholders
	Params      []Param
	ReadOnly    bool
	Destructive bool
}

func bound(v float64) *float64 { return &v }

func limitParam(def, max float64, what string) Param {
	return Param{
		Name:        "limit",
		Type:        TypeNumber,
		Description: fmt.Sprintf("Maximum number of %s to return (1-%d). Default: %d.", what, int(max), int(def)),
		In:          InQuery,
		Default:     def,
		Minimum:     bound(1),
		Maximum:     bound(max),
	}
}

var startParam = Param{
	Name:        "start",
	Type:        TypeNumber,
	Description: "Starting offset for pagination. Default: 0. Use with limit to page through large result sets.",
	In:          InQuery,
	Minimum:     bound(0),
}

func expandParam(examples string) Param {
	return Param{
		Name:        "expand",
		Type:        TypeString,
		Description: "Comma-separated list of properties to expand. Examples: " + examples + ".",
		In:          InQuery,
	}
}

func pageIDParam(what string) Param {
	return Param{
		Name:        "page_id",
		Type:        TypeString,
		Description: "The ID of the page " + what + ". Example: '123456789'.",
		Required:    true,
		In:          InPath,
	}
}

var descriptors = map[Operation]Descriptor{
	GetSpaces: {
		Name:        "get_confluence_spaces",
		Description: "Retrieves the Confluence spaces the user has access to. Space keys are needed to create pages and narrow searches. Personal spaces usually have keys like '~username'.",
		Method:      http.MethodGet,
		Path:        "/space",
		ReadOnly:    true,
		Params: []Param{
			limitParam(25, 100, "spaces"),
			startParam,
			{Name: "type", Type: TypeString, Description: "Filter by space type.", In: InQuery, Enum: []string{"global", "personal"}},
			{Name: "status", Type: TypeString, Description: "Filter by space status.", In: InQuery, Enum: []string{"current", "archived"}},
		},
	},
	GetSpace: {
		Name:        "get_confluence_space",
		Description: "Retrieves a single Confluence space by its key.",
		Method:      http.MethodGet,
		Path:        "/space/{space_key}",
		ReadOnly:    true,
		Params: []Param{
			{Name: "space_key", Type: TypeString, Description: "The space key. Example: 'DOCS', '~username'.", Required: true, In: InPath},
			expandParam("'description.plain', 'homepage'"),
		},
	},
	GetPage: {
		Name:        "get_confluence_page",
		Description: "Retrieves a Confluence page with its metadata. Add expand to include the page content in the response.",
		Method:      http.MethodGet,
		Path:        "/content/{page_id}",
		ReadOnly:    true,
		Params: []Param{
			pageIDParam("to retrieve"),
			expandParam("'body.view' (HTML content), 'body.storage' (raw XML), 'version,space,history'"),
		},
	},
	FindPage: {
		Name:        "find_confluence_page",
		Description: "Finds a Confluence page by its exact title within a space.",
		Method:      http.MethodGet,
		Path:        "/content",
		ReadOnly:    true,
		Params: []Param{
			{Name: "space_key", Type: TypeString, Description: "The key of the space containing the page. Example: 'DOCS'.", Required: true, In: InQuery, Key: "spaceKey"},
			{Name: "title", Type: TypeString, Description: "The exact page title. Example: 'Meeting Notes'.", Required: true, In: InQuery},
			expandParam("'body.view', 'version,space'"),
		},
	},
	SearchPages: {
		Name:        "search_confluence_pages",
		Description: "Searches Confluence pages with a simple text query or with CQL (Confluence Query Language). Provide either query or cql.",
		Method:      http.MethodGet,
		Path:        "/content/search",
		ReadOnly:    true,
		Params: []Param{
			{Name: "query", Type: TypeString, Description: "Simple text search over titles and content. Example: 'meeting notes'.", In: InQuery},
			{Name: "cql", Type: TypeString, Description: "CQL query. Example: 'space = DOCS AND title ~ \"API*\"'. Takes precedence over query.", In: InQuery},
			{Name: "space_key", Type: TypeString, Description: "Restrict the search to one space. Example: 'DOCS'.", In: InQuery},
			limitParam(25, 100, "results"),
			startParam,
			expandParam("'body.view', 'version,space'"),
			{Name: "excerpt", Type: TypeString, Description: "Excerpt to include with each result.", In: InQuery, Enum: []string{"none", "highlight", "indexed"}},
		},
	},
	CreatePage: {
		Name:        "create_confluence_page",
		Description: "Creates a new Confluence page. Content is Confluence Storage Format (XHTML). Set parent_page_id to nest the page under another page.",
		Method:      http.MethodPost,
		Path:        "/content",
		Params: []Param{
			{Name: "space_key", Type: TypeString, Description: "The key of the space for the new page. Example: 'DOCS'.", Required: true, In: InBody},
			{Name: "title", Type: TypeString, Description: "The page title. Must be unique within the space.", Required: true, In: InBody},
			{Name: "content", Type: TypeString, Description: "Page content in Confluence Storage Format. Example: '<p>Hello world</p>'.", Required: true, In: InBody},
			{Name: "parent_page_id", Type: TypeString, Description: "ID of the parent page. Leave empty for a top-level page.", In: InBody},
		},
	},
	UpdatePage: {
		Name:        "update_confluence_page",
		Description: "Updates an existing Confluence page. new_version_number must be the current version plus one; read the page first to learn its version.",
		Method:      http.MethodPut,
		Path:        "/content/{page_id}",
		Params: []Param{
			pageIDParam("to update"),
			{Name: "title", Type: TypeString, Description: "The page title. Confluence requires it on every update.", Required: true, In: InBody},
			{Name: "new_version_number", Type: TypeNumber, Description: "The new version number (current version + 1).", Required: true, In: InBody, Minimum: bound(2)},
			{Name: "content", Type: TypeString, Description: "New content in Confluence Storage Format. Omit to keep the current body.", In: InBody},
			{Name: "parent_page_id", Type: TypeString, Description: "ID of a new parent page. Omit to keep the current parent.", In: InBody},
		},
	},
	DeletePage: {
		Name:        "delete_confluence_page",
		Description: "Moves a Confluence page to the trash. Trashed pages can be restored by space admins.",
		Method:      http.MethodDelete,
		Path:        "/content/{page_id}",
		Destructive: true,
		Params:      []Param{pageIDParam("to move to the trash")},
	},
	GetPageChildren: {
		Name:        "get_page_children",
		Description: "Lists the direct child pages of a Confluence page.",
		Method:      http.MethodGet,
		Path:        "/content/{page_id}/child/page",
		ReadOnly:    true,
		Params: []Param{
			pageIDParam("whose children to list"),
			limitParam(25, 100, "child pages"),
			startParam,
		},
	},
	GetPageAttachments: {
		Name:        "get_page_attachments",
		Description: "Lists the attachments of a Confluence page, optionally filtered by file name or media type.",
		Method:      http.MethodGet,
		Path:        "/content/{page_id}/child/attachment",
		ReadOnly:    true,
		Params: []Param{
			pageIDParam("whose attachments to list"),
			limitParam(50, 200, "attachments"),
			startParam,
			{Name: "filename", Type: TypeString, Description: "Filter by file name. Example: 'document.pdf'.", In: InQuery},
			{Name: "media_type", Type: TypeString, Description: "Filter by media type. Example: 'application/pdf'.", In: InQuery, Key: "mediaType"},
		},
	},
	DeleteAttachment: {
		Name:        "delete_page_attachment",
		Description: "Deletes an attachment from a Confluence page. Use get_page_attachments to find the attachment ID.",
		Method:      http.MethodDelete,
		Path:        "/content/{attachment_id}",
		Destructive: true,
		Params: []Param{
			{Name: "attachment_id", Type: TypeString, Description: "The attachment ID. Example: 'att123456'.", Required: true, In: InPath},
		},
	},
	GetPageComments: {
		Name:        "get_page_comments",
		Description: "Lists the comments on a Confluence page.",
		Method:      http.MethodGet,
		Path:        "/content/{page_id}/child/comment",
		ReadOnly:    true,
		Params: []Param{
			pageIDParam("whose comments to list"),
			limitParam(25, 100, "comments"),
			startParam,
			expandParam("'body.view', 'history'"),
		},
	},
	GetCurrentUser: {
		Name:        "get_current_user",
		Description: "Returns the Confluence account the configured credentials belong to.",
		Method:      http.MethodGet,
		Path:        "/user/current",
		ReadOnly:    true,
	},
}

var byName = func() map[string]Operation {
	m := make(map[string]Operation, len(descriptors))
	for op, d := range descriptors {
		m[d.Name] = op
	}
	return m
}()

// Lookup finds an operation by its exact, case-sensitive tool name.
func Lookup(name string) (Operation, bool) {
	op, ok := byName[name]
	return op, ok
}

// Descriptor returns the static description of the operation. It panics
// on a value outside the registry.
func (o Operation) Descriptor() Descriptor {
	d, ok := descriptors[o]
	if !ok {
		panic(fmt.Sprintf("confluence: unknown operation %d", int(o)))
	}
	return d
}

// String returns the tool name.
func (o Operation) String() string {
	if d, ok := descriptors[o]; ok {
		return d.Name
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// Request is one fully-built outbound call.
type Request struct {
	Method string
	Path   string // absolute path on the origin, including APIPrefix
	Query  url.Values
	Body   any
}

// URL renders the request target against origin.
func (r Request) URL(origin string) string {
	u := origin + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	return u
}

// BuildRequest maps validated arguments onto the operation's request.
func (o Operation) BuildRequest(args Arguments) (Request, error) {
	d := o.Descriptor()

	path := d.Path
	query := url.Values{}
	for _, p := range d.Params {
		switch p.In {
		case InPath:
			v, ok := args.String(p.Name)
			if !ok || v == "" {
				return Request{}, &ArgumentError{Param: p.Name, Reason: "is required"}
			}
			path = strings.ReplaceAll(path, "{"+p.Name+"}", url.PathEscape(v))
		case InQuery:
			if o == SearchPages && (p.Name == "query" || p.Name == "cql" || p.Name == "space_key") {
				continue
			}
			v, ok := args.String(p.Name)
			if !ok || v == "" {
				if p.Default == nil {
					if p.Required {
						return Request{}, &ArgumentError{Param: p.Name, Reason: "is required"}
					}
					continue
				}
				v = formatValue(p.Default)
			}
			query.Set(p.QueryKey(), v)
		}
	}

	req := Request{Method: d.Method, Path: APIPrefix + path}

	var err error
	switch o {
	case FindPage:
		query.Set("type", "page")
	case SearchPages:
		var cql string
		if cql, err = searchCQL(args); err != nil {
			return Request{}, err
		}
		query.Set("cql", cql)
	case CreatePage:
		req.Body, err = createPageBody(args)
	case UpdatePage:
		req.Body, err = updatePageBody(args)
	}
	if err != nil {
		return Request{}, err
	}

	if len(query) > 0 {
		req.Query = query
	}
	return req, nil
}

// searchCQL builds the CQL expression: an explicit cql wins over a text
// query, and space_key narrows either.
func searchCQL(args Arguments) (string, error) {
	var parts []string
	if cql, _ := args.String("cql"); strings.TrimSpace(cql) != "" {
		parts = append(parts, "("+cql+")")
	} else if q, _ := args.String("query"); strings.TrimSpace(q) != "" {
		escaped := cqlEscape(q)
		parts = append(parts, fmt.Sprintf(`(text ~ "%s" OR title ~ "%s")`, escaped, escaped))
	} else {
		return "", &ArgumentError{Param: "query", Reason: "or cql is required"}
	}
	if space, _ := args.String("space_key"); space != "" {
		parts = append(parts, fmt.Sprintf(`space = "%s"`, cqlEscape(space)))
	}
	return strings.Join(parts, " AND "), nil
}

func cqlEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

type storageBody struct {
	Storage storageValue `json:"storage"`
}

type storageValue struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type ancestor struct {
	ID string `json:"id"`
}

type spaceRef struct {
	Key string `json:"key"`
}

type versionRef struct {
	Number int `json:"number"`
}

// PageBody is the JSON payload for page create and update calls.
type PageBody struct {
	ID        string       `json:"id,omitempty"`
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Space     *spaceRef    `json:"space,omitempty"`
	Version   *versionRef  `json:"version,omitempty"`
	Ancestors []ancestor   `json:"ancestors,omitempty"`
	Body      *storageBody `json:"body,omitempty"`
}

func storage(content string) *storageBody {
	return &storageBody{Storage: storageValue{Value: content, Representation: "storage"}}
}

func createPageBody(args Arguments) (PageBody, error) {
	space, _ := args.String("space_key")
	title, _ := args.String("title")
	content, ok := args.String("content")
	switch {
	case space == "":
		return PageBody{}, &ArgumentError{Param: "space_key", Reason: "is required"}
	case strings.TrimSpace(title) == "":
		return PageBody{}, &ArgumentError{Param: "title", Reason: "is required"}
	case !ok:
		return PageBody{}, &ArgumentError{Param: "content", Reason: "is required"}
	}

	body := PageBody{
		Type:  "page",
		Title: title,
		Space: &spaceRef{Key: space},
		Body:  storage(content),
	}
	if parent, _ := args.String("parent_page_id"); parent != "" {
		body.Ancestors = []ancestor{{ID: parent}}
	}
	return body, nil
}

func updatePageBody(args Arguments) (PageBody, error) {
	id, _ := args.String("page_id")
	title, _ := args.String("title")
	if strings.TrimSpace(title) == "" {
		return PageBody{}, &ArgumentError{Param: "title", Reason: "is required"}
	}
	version, ok := args.Int("new_version_number")
	if !ok {
		return PageBody{}, &ArgumentError{Param: "new_version_number", Reason: "must be an integer"}
	}
	if version < 2 {
		return PageBody{}, &ArgumentError{Param: "new_version_number", Reason: "must be at least 2"}
	}

	body := PageBody{
		ID:      id,
		Type:    "page",
		Title:   title,
		Version: &versionRef{Number: version},
	}
	if content, ok := args.String("content"); ok {
		body.Body = storage(content)
	}
	if parent, _ := args.String("parent_page_id"); parent != "" {
		body.Ancestors = []ancestor{{ID: parent}}
	}
	return body, nil
}
