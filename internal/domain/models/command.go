package models

import (
	"strings"
)

type CommandType string

const (
	CommandJoin    CommandType = "join"
	CommandAdd     CommandType = "add"
	CommandStop    CommandType = "stop"
	CommandStopAll CommandType = "stopall"
	CommandInfo    CommandType = "info"
	CommandStatus  CommandType = "status"
	CommandHelp    CommandType = "help"
	CommandAdmin   CommandType = "admin"
	CommandUnknown CommandType = "unknown"
)

type Command struct {
	Type        CommandType
	Name        string
	Args        []string
	ChatID      int64
	DisplayName string
}

// ParseCommand разбирает текст сообщения: команда - первое слово без "/", остальное - аргументы.
func ParseCommand(chatID int64, text, displayName string) *Command {
	fields := strings.Fields(strings.ToLower(text))

	command := &Command{
		Type:        CommandUnknown,
		ChatID:      chatID,
		DisplayName: displayName,
	}

	if len(fields) == 0 {
		return command
	}

	command.Name = strings.ReplaceAll(fields[0], "/", "")
	command.Args = fields[1:]

	switch CommandType(command.Name) {
	case CommandJoin, CommandAdd, CommandStop, CommandStopAll, CommandInfo,
		CommandStatus, CommandHelp, CommandAdmin:
		command.Type = CommandType(command.Name)
	case "start":
		command.Type = CommandHelp
	}

	return command
}

func (c *Command) Arg(i int) (string, bool) {
	if i >= len(c.Args) {
		return "", false
	}

	return c.Args[i], true
}
