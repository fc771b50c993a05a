package menu

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// DefaultRoutes is the application route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Name: "home", Meta: Meta{
			Title: "首页", Icon: "mdi-home", Description: "应用首页，展示主要功能",
			Keywords: []string{"首页", "主页", "home"}, Category: "基础页面",
			Priority: intPtr(1), ShowInMenu: boolPtr(true),
		}},
		{Path: "/about", Name: "about", Meta: Meta{Title: "关于", Icon: "mdi-information"}},
		{Path: "/contact", Name: "contact", Meta: Meta{
			Title: "联系我们", Icon: "mdi-email", Description: "联系页面，提供联系方式和服务信息",
			Keywords: []string{"联系", "contact", "邮箱", "电话"}, Category: "基础页面",
			Priority: intPtr(2), ShowInMenu: boolPtr(true),
		}},
		{Path: "/login", Name: "login", Meta: Meta{Title: "登录", Icon: "mdi-login"}},
		{Path: "/dashboard", Name: "dashboard", Meta: Meta{
			Title: "仪表板", Icon: "mdi-view-dashboard", Description: "系统仪表板，展示关键指标",
			Keywords: []string{"仪表板", "dashboard", "统计"}, Category: "基础页面",
			Priority: intPtr(3), ShowInMenu: boolPtr(true), RequireAuth: true,
		}},
		{Path: "/meta-demo", Name: "meta-demo", Meta: Meta{
			Title: "Meta演示", Icon: "mdi-information", Description: "演示路由meta自定义字段的使用",
			Keywords: []string{"meta", "演示", "自定义字段"}, Category: "演示页面",
			Priority: intPtr(4), ShowInMenu: boolPtr(true),
		}},
		{Path: "/header-demo", Name: "header-demo", Meta: Meta{Title: "AppHeader 演示"}},
		{Path: "/header-demo/default", Name: "header-demo-default", Meta: Meta{Title: "默认配置演示"}},
		{Path: "/header-demo/custom-title", Name: "header-demo-custom-title", Meta: Meta{Title: "自定义标题演示"}},
		{Path: "/header-demo/custom-actions", Name: "header-demo-custom-actions", Meta: Meta{Title: "自定义操作按钮演示"}},
		{Path: "/header-demo/slot", Name: "header-demo-slot", Meta: Meta{Title: "插槽方式演示"}},
		{Path: "/header-demo/component", Name: "header-demo-component", Meta: Meta{Title: "组件对象方式演示"}},
		{Path: "/header-demo/styles", Name: "header-demo-styles", Meta: Meta{Title: "样式控制演示"}},
		{Path: "/footer-demo", Name: "footer-demo", Meta: Meta{Title: "页脚演示"}},
		{Path: "/footer-demo/default", Name: "footer-demo-default", Meta: Meta{Title: "默认页脚演示"}},
		{Path: "/footer-demo/fixed", Name: "footer-demo-fixed", Meta: Meta{Title: "固定页脚演示"}},
		{Path: "/footer-demo/custom", Name: "footer-demo-custom", Meta: Meta{Title: "自定义页脚演示"}},
		{Path: "/:pathMatch(.*)*", Redirect: "/"},
	}
}
