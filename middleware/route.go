package middleware

import (
	midsec "PTalk/middleware/security"

	"github.com/gin-gonic/gin"
)

type RouteOpt struct {
	IsAuth bool
	Auth   *midsec.Options
}

func handlers(handler gin.HandlerFunc, opt RouteOpt) []gin.HandlerFunc {
	if opt.IsAuth && opt.Auth != nil {
		return []gin.HandlerFunc{midsec.Middleware(opt.Auth), handler}
	}
	return []gin.HandlerFunc{handler}
}

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.POST(path, handlers(handler, opt)...)
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.GET(path, handlers(handler, opt)...)
}
