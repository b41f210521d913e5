package app

import (
	"fmt"
	"strconv"
)

// Command はlifelogバイナリのサブコマンド。
type Command string

const (
	CommandServe       Command = "serve"
	CommandWorker      Command = "worker"
	CommandMigrate     Command = "migrate"
	CommandHealthcheck Command = "healthcheck" // distrolessイメージのHEALTHCHECK用
)

// MigrateAction はmigrateサブコマンドの操作。
type MigrateAction string

const (
	MigrateUp      MigrateAction = "up"
	MigrateDown    MigrateAction = "down"
	MigrateVersion MigrateAction = "version"
)

// Invocation は解析済みのコマンドライン。
// MigrateとStepsはCommandMigrateの場合のみ意味を持つ。
type Invocation struct {
	Command Command
	Migrate MigrateAction
	Steps   int
}

// ParseInvocation はos.Args[1:]を解析する。
// 引数なしはserve。migrateは up（省略時）、down [n]、version を受け付ける。
// 未知のサブコマンドや不正なmigrate引数はエラーとし、意図しないモードでの起動を防ぐ。
func ParseInvocation(args []string) (Invocation, error) {
	if len(args) == 0 {
		return Invocation{Command: CommandServe}, nil
	}

	switch cmd := Command(args[0]); cmd {
	case CommandServe, CommandWorker, CommandHealthcheck:
		if len(args) > 1 {
			return Invocation{}, fmt.Errorf("%s takes no arguments, got %q", cmd, args[1:])
		}
		return Invocation{Command: cmd}, nil
	case CommandMigrate:
		return parseMigrate(args[1:])
	default:
		return Invocation{}, fmt.Errorf("unknown command %q: want serve, worker, migrate or healthcheck", args[0])
	}
}

func parseMigrate(args []string) (Invocation, error) {
	inv := Invocation{Command: CommandMigrate, Migrate: MigrateUp}
	if len(args) == 0 {
		return inv, nil
	}

	inv.Migrate = MigrateAction(args[0])
	switch inv.Migrate {
	case MigrateUp, MigrateVersion:
		if len(args) > 1 {
			return Invocation{}, fmt.Errorf("migrate %s takes no arguments, got %q", inv.Migrate, args[1:])
		}
	case MigrateDown:
		inv.Steps = 1
		if len(args) > 2 {
			return Invocation{}, fmt.Errorf("migrate down takes at most one argument, got %q", args[1:])
		}
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return Invocation{}, fmt.Errorf("invalid rollback steps %q: must be a positive integer", args[1])
			}
			inv.Steps = n
		}
	default:
		return Invocation{}, fmt.Errorf("unknown migrate action %q: want up, down or version", args[0])
	}
	return inv, nil
}
