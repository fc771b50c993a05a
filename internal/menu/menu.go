// Package menu turns route metadata into navigation menus.
package menu

import (
	"cmp"
	"slices"
	"strings"
)

const (
	DefaultTitle    = "未命名页面"
	DefaultIcon     = "mdi-help"
	DefaultPriority = 999
)

// Meta is the metadata attached to a route.
type Meta struct {
	Title       string   `json:"title,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Category    string   `json:"category,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
	ShowInMenu  *bool    `json:"showInMenu,omitempty"`
	RequireAuth bool     `json:"requireAuth,omitempty"`
}

// Route is a navigable page. Routes with Redirect set are aliases and never
// appear in menus.
type Route struct {
	Path     string  `json:"path"`
	Name     string  `json:"name,omitempty"`
	Redirect string  `json:"redirect,omitempty"`
	Meta     Meta    `json:"meta"`
	Children []Route `json:"children,omitempty"`
}

// Item is a menu entry with defaults applied.
type Item struct {
	Path        string   `json:"path"`
	Name        string   `json:"name,omitempty"`
	Title       string   `json:"title"`
	Icon        string   `json:"icon"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Category    string   `json:"category,omitempty"`
	Priority    int      `json:"priority"`
	RequireAuth bool     `json:"requireAuth,omitempty"`
	Children    []Item   `json:"children,omitempty"`
}

func (m Meta) visible() bool { return m.ShowInMenu == nil || *m.ShowInMenu }

func itemFromRoute(r Route) Item {
	item := Item{
		Path:        r.Path,
		Name:        r.Name,
		Title:       cmp.Or(r.Meta.Title, DefaultTitle),
		Icon:        cmp.Or(r.Meta.Icon, DefaultIcon),
		Description: r.Meta.Description,
		Keywords:    append([]string(nil), r.Meta.Keywords...),
		Category:    r.Meta.Category,
		Priority:    DefaultPriority,
		RequireAuth: r.Meta.RequireAuth,
	}
	if r.Meta.Priority != nil {
		item.Priority = *r.Meta.Priority
	}
	return item
}

// BuildMenu returns the visible routes as menu items, ordered by ascending
// priority at every level. Equal priorities keep route order.
func BuildMenu(routes []Route) []Item {
	items := make([]Item, 0, len(routes))
	for _, r := range routes {
		if r.Redirect != "" || !r.Meta.visible() {
			continue
		}
		item := itemFromRoute(r)
		if len(r.Children) > 0 {
			item.Children = BuildMenu(r.Children)
		}
		items = append(items, item)
	}
	slices.SortStableFunc(items, func(a, b Item) int { return cmp.Compare(a.Priority, b.Priority) })
	return items
}

// Group is a set of items sharing a category.
type Group struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// UncategorizedLabel names the group of items without a category.
const UncategorizedLabel = "其他"

// GroupByCategory groups top-level items by category in first-seen order.
func GroupByCategory(items []Item) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, item := range items {
		category := cmp.Or(item.Category, UncategorizedLabel)
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, Group{Category: category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// Search returns items, at any depth, whose title, description or keywords
// contain keyword case-insensitively. A blank keyword matches nothing.
func Search(items []Item, keyword string) []Item {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil
	}
	var out []Item
	var walk func([]Item)
	walk = func(list []Item) {
		for _, item := range list {
			if item.matches(needle) {
				out = append(out, item)
			}
			walk(item.Children)
		}
	}
	walk(items)
	return out
}

func (i Item) matches(needle string) bool {
	if strings.Contains(strings.ToLower(i.Title), needle) || strings.Contains(strings.ToLower(i.Description), needle) {
		return true
	}
	for _, kw := range i.Keywords {
		if strings.Contains(strings.ToLower(kw), needle) {
			return true
		}
	}
	return false
}

// Find returns the route registered for path, searching nested routes.
func Find(routes []Route, path string) (Route, bool) {
	for _, r := range routes {
		if r.Path == path && r.Redirect == "" {
			return r, true
		}
		if found, ok := Find(r.Children, path); ok {
			return found, true
		}
	}
	return Route{}, false
}

// RequiresAuth reports whether the route at path is marked requireAuth.
func RequiresAuth(routes []Route, path string) bool {
	r, ok := Find(routes, path)
	return ok && r.Meta.RequireAuth
}
