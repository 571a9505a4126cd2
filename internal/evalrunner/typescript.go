package evalrunner

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/edirooss/codeeval-server/internal/evalmodel"
)

// TypeScriptRunner executes TypeScript snippets under ts-node, per
// §4.5.c. Memory is capped via NODE_OPTIONS=--max-old-space-size, the
// same knob the original implementation shells out with, since ts-node
// runs on the V8 heap rather than a resource.setrlimit'able process the
// way the Python driver does.
type TypeScriptRunner struct {
	Log    *zap.Logger
	TSNode string
}

func (r *TypeScriptRunner) Run(ctx context.Context, req Request) (evalmodel.Verdict, evalmodel.ResourceStats) {
	var env []string
	if req.MemoryLimitMB > 0 {
		env = append(env, "NODE_OPTIONS=--max-old-space-size="+strconv.Itoa(req.MemoryLimitMB))
	}
	return runScript(ctx, r.Log.With(zap.String("lang", "typescript")), r.TSNode, env, "snippet-*.ts", req)
}
