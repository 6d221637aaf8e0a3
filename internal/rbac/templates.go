package rbac

import "html/template"

// TemplateFuncs returns the "can" and "hasRole" template helpers backed by
// authz. Values that are not a *Principal are treated as anonymous.
func TemplateFuncs(authz *Authorizer) template.FuncMap {
	return template.FuncMap{
		"can": func(p any, key string) bool {
			principal, _ := p.(*Principal)
			return authz.HasPermission(principal, PermissionKey(key))
		},
		"hasRole": func(p any, roles ...string) bool {
			principal, _ := p.(*Principal)
			parsed := make([]Role, len(roles))
			for i, r := range roles {
				parsed[i] = Role(r)
			}
			return authz.HasRole(principal, parsed...)
		},
	}
}
