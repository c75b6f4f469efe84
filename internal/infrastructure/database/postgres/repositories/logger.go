package repositories

import "github.com/turtacn/mfa-engine/internal/platform/logging"

// Logger is the logging contract repository implementations depend on. It is
// an alias rather than a new interface so that any logging.Logger value
// (including the nop logger used in tests) satisfies it without adapters.
type Logger = logging.Logger
