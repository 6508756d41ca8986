package renewal

import "go.uber.org/fx"

// Module exposes the renewal engine via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(func(s *Service) Engine { return s }),
)
