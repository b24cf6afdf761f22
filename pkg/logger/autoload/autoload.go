// Package autoload initializes the global logger from the environment when
// blank-imported.
package autoload

import (
	configx "github.com/voxgate/voxgate/pkg/config"
	logx "github.com/voxgate/voxgate/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
