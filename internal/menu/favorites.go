package menu

import (
	"fmt"
	"sync"
)

// Product is an entry of the product catalogue that can be pinned as a
// favorite.
type Product struct {
	Title      string    `json:"title"`
	Path       string    `json:"path"`
	Icon       string    `json:"icon"`
	IsFavorite bool      `json:"isFavorite"`
	Children   []Product `json:"children,omitempty"`
}

// Catalog holds products in display order with favorites first once reordered.
type Catalog struct {
	mu       sync.Mutex
	products []Product
}

func NewCatalog(products []Product) *Catalog {
	return &Catalog{products: append([]Product(nil), products...)}
}

func (c *Catalog) Products() []Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Product(nil), c.products...)
}

// Favorites returns favorite products in catalogue order.
func (c *Catalog) Favorites() []Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.favoritesLocked()
}

func (c *Catalog) favoritesLocked() []Product {
	var out []Product
	for _, p := range c.products {
		if p.IsFavorite {
			out = append(out, p)
		}
	}
	return out
}

// AddFavorite marks the product at p.Path as favorite, appending p when the
// path is unknown.
func (c *Catalog) AddFavorite(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].Path == p.Path {
			c.products[i].IsFavorite = true
			return
		}
	}
	p.IsFavorite = true
	c.products = append(c.products, p)
}

// RemoveFavorite unpins the product at path. Unknown paths are ignored.
func (c *Catalog) RemoveFavorite(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].Path == path {
			c.products[i].IsFavorite = false
		}
	}
}

// MoveFavorite moves the favorite at index from to index to, then places all
// favorites ahead of the other products.
func (c *Catalog) MoveFavorite(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	favorites := c.favoritesLocked()
	if from < 0 || from >= len(favorites) || to < 0 || to >= len(favorites) {
		return fmt.Errorf("favorite index out of range: %d -> %d (have %d)", from, to, len(favorites))
	}
	moved := favorites[from]
	favorites = append(favorites[:from], favorites[from+1:]...)
	favorites = append(favorites[:to], append([]Product{moved}, favorites[to:]...)...)

	ordered := favorites
	for _, p := range c.products {
		if !p.IsFavorite {
			ordered = append(ordered, p)
		}
	}
	c.products = ordered
	return nil
}

func leaf(title, path, icon string) Product { return Product{Title: title, Path: path, Icon: icon} }

// DefaultProducts is the built-in product catalogue.
func DefaultProducts() []Product {
	return []Product{
		{Title: "工单系统", Path: "/ticket", Icon: "mdi-ticket", IsFavorite: true, Children: []Product{
			leaf("提交工单", "/ticket/submit", "mdi-plus"),
			leaf("我的工单", "/ticket/my", "mdi-format-list-bulleted"),
			leaf("工单统计", "/ticket/stats", "mdi-chart-bar"),
		}},
		{Title: "腾讯云可观测平台", Path: "/observability", Icon: "mdi-chart-line", IsFavorite: true, Children: []Product{
			leaf("监控大盘", "/observability/dashboard", "mdi-view-dashboard"),
			leaf("告警规则", "/observability/alerts", "mdi-bell"),
			leaf("日志查询", "/observability/logs", "mdi-file-document"),
		}},
		{Title: "云服务器", Path: "/server", Icon: "mdi-server", IsFavorite: true, Children: []Product{
			leaf("实例列表", "/server/instances", "mdi-format-list-bulleted"),
			leaf("镜像管理", "/server/images", "mdi-image"),
			leaf("安全组", "/server/security", "mdi-shield"),
		}},
		{Title: "轻量应用服务器", Path: "/lightweight", Icon: "mdi-server-network", IsFavorite: true, Children: []Product{
			leaf("服务器列表", "/lightweight/servers", "mdi-format-list-bulleted"),
			leaf("云硬盘", "/lightweight/disks", "mdi-harddisk"),
			leaf("数据备份", "/lightweight/backup", "mdi-backup-restore"),
		}},
		{Title: "容器服务", Path: "/container", Icon: "mdi-docker", IsFavorite: true, Children: []Product{
			leaf("集群管理", "/container/clusters", "mdi-server-network"),
			leaf("工作负载", "/container/workloads", "mdi-cube"),
			leaf("镜像仓库", "/container/registry", "mdi-package-variant"),
		}},
		{Title: "费用中心", Path: "/cost", Icon: "mdi-currency-usd", Children: []Product{
			leaf("费用概览", "/cost/overview", "mdi-chart-pie"),
			leaf("账单明细", "/cost/bills", "mdi-receipt"),
			leaf("成本优化", "/cost/optimization", "mdi-trending-down"),
		}},
		{Title: "ICP备案", Path: "/icp", Icon: "mdi-file-document", Children: []Product{
			leaf("我的备案", "/icp/my", "mdi-format-list-bulleted"),
			leaf("备案申请", "/icp/apply", "mdi-plus"),
			leaf("备案查询", "/icp/query", "mdi-magnify"),
		}},
		{Title: "数据库", Path: "/database", Icon: "mdi-database", Children: []Product{
			leaf("实例列表", "/database/instances", "mdi-format-list-bulleted"),
			leaf("备份管理", "/database/backups", "mdi-backup-restore"),
			leaf("监控告警", "/database/monitor", "mdi-monitor"),
		}},
		{Title: "云监控", Path: "/monitor", Icon: "mdi-monitor", Children: []Product{
			leaf("监控大盘", "/monitor/dashboard", "mdi-view-dashboard"),
			leaf("告警规则", "/monitor/alerts", "mdi-bell"),
			leaf("日志查询", "/monitor/logs", "mdi-file-document"),
		}},
	}
}
