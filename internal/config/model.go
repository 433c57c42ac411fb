package config

import (
	"NailSegmentation/pkg/httpmodel"
	"NailSegmentation/pkg/model"
	websocketPkg "NailSegmentation/pkg/websocket"
	"fmt"

	"github.com/sirupsen/logrus"
)

// NewPredictor builds the process-wide model backend selected by MODEL_BACKEND.
func NewPredictor(env *Env, logger *logrus.Logger) (model.Predictor, error) {
	var predictor model.Predictor

	switch env.ModelBackend {
	case BackendWebSocket:
		predictor = websocketPkg.NewModelClient(env.ModelWSURL, logger,
			websocketPkg.WithTimeouts(env.ModelTimeout, 0))
	case BackendHTTP:
		predictor = httpmodel.NewModelAdapter(env.ModelHTTPURL, env.ModelTimeout, logger)
	default:
		return nil, fmt.Errorf("unknown model backend %q", env.ModelBackend)
	}

	if env.ModelSerialize {
		logger.Info("Model calls are serialized, one inference in flight at a time")
		predictor = model.Serialize(predictor)
	}

	return predictor, nil
}
