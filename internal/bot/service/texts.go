package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

const (
	textWelcome = "Welcome! To use the *Uber Shuttle Notification* service, " +
		"you need to be added first. Send a message with _join_ to " +
		"notify admins.\nDisclaimer: Admins will be able to see your " +
		"user name and user Id."

	textAdminsNotified = "Admins have been notified"

	textAddNoRoute  = "Please enter a route parameter. Type _help_ to see the instructions."
	textStopNoRoute = "Please enter a route parameter or 'all'. Type _help_ to see the instructions."
	textNoCurrent   = "There are no current subscriptions"

	textInfoEmpty    = "You have no notification subscriptions"
	textInfoHeader   = "These are your notification subscriptions:\n\n"
	textStatusEmpty  = "There are no notification subscriptions at the moment"
	textStatusHeader = "These are all the notification subscriptions per route:\n\n"

	textInternalError = "*Error:* Something went wrong, please try again later"

	textHelp = "These are the command options (parameters are marked with _$_ and are explained below):\n\n" +
		"*add* (add subscription for a specific route, day, notification style)\n\n" +
		"_message style_: add $routes [days=$days] [seats=$seats]\n\n" +
		"_message example_: add Destination1,Destination2- days=Monday,Thursday seats=true\n\n" +
		"*stop* (stop a subscription for a specific route or 'all')\n\n" +
		"_message style_: stop $routes|all\n" +
		"_message example_: stop all\n\n" +
		"*info* (see all you subscriptions and their configurations)\n\n" +
		"_message_: info\n\n" +
		"*status* (see all active subscriptions for all users)\n\n" +
		"_message_: status\n\n\n" +
		"Parameters:\n\n" +
		"*$routes*: Comma separated list of destinations or itineraries. To add only one direction, use dashes: " +
		" <_Dest_>*-* for the route *to* Work and *-*<_Dest_> for the route *from* Work.\n" +
		"e.g. _Destination1,Destination2,Destination3_ *or* _-Destination1,Destination2-_\n\n" +
		"*$days* _(optional)_: Comma separated list of weekdays, preceeded with 'days='\n" +
		"e.g. _days=Tuesday,Wednesday,Friday_\n\n" +
		"*$seats* _(optional)_: _seats=true_ or _seats=false_.\n" +
		"If _false_, only get notified if a day is added. If _true_, also get notified if new seats get free."

	adminCommands = "_admin add <chat-id>_\nto add a user,\n" +
		"_admin admin <chat-id>_\nto make a user an admin, or\n" +
		"_admin block <chat-id>_\nto block a user.\n\n" +
		"Use\n_admin users_\nto check the user count,\n" +
		"_admin requests_\nto check pending requests,\n" +
		"_admin blocked_\nto check blocked users,\n" +
		"_admin admins_\nto check who is an admin, and\n" +
		"_admin active_\nto get a list of all unblocked users."

	textAdminUsage = "Please enter\n" + adminCommands
	textMadeAdmin  = "*You have been made admin!*\n\nYou can enter\n" + adminCommands

	textAdded        = "You have been added!"
	textBlocked      = "You have been blocked!"
	textDenied       = "The join request was denied!"
	textWasntPending = "User wasn't pending."
)

func joinRequestText(user *models.User) string {
	return fmt.Sprintf(
		"New user %d (%s) requests to join the user group.\n\n"+
			"To add, send:\n_admin add %d_\n"+
			"To make admin, send:\n_admin admin %d_\n"+
			"To block, send:\n_admin block %d_",
		user.ChatID, user.Name, user.ChatID, user.ChatID, user.ChatID,
	)
}

func unknownCommandText(name string) string {
	return fmt.Sprintf("Unknown command '%s', type _help_ to see the instructions", name)
}

func unknownAdminCommandText(name string) string {
	return fmt.Sprintf("Unknown admin command '%s'.\n\n%s", name, textAdminUsage)
}

func catchUpLine(route models.Route, seats int, dateKey string) string {
	return fmt.Sprintf("*%s*\n%d Seats are already available for %s", route, seats, dateKey)
}

func subscriptionLine(sub *models.RouteSubscription) string {
	days := make([]string, 0, len(sub.Weekdays))
	for _, day := range sub.Weekdays {
		days = append(days, day.String())
	}

	return fmt.Sprintf("*%s*\ndays: [%s], notify for free seats: %s",
		sub.Route, strings.Join(days, ", "), titleBool(sub.NotifySeats))
}

func titleBool(v bool) string {
	if v {
		return "True"
	}

	return "False"
}

func statsText(stats *models.UserStats) string {
	return fmt.Sprintf(
		"*%d* current users.\n*%d* opened the chat.\n*%d* sent a request.\n*%d* users were blocked.\n*%d* current admins.",
		stats.Total-stats.Blocked,
		stats.Pending,
		stats.RequestSent,
		stats.Blocked-stats.Pending,
		stats.Admins,
	)
}

func userListText(header, empty string, users []*models.User) string {
	if len(users) == 0 {
		return empty
	}

	lines := []string{header}
	for _, user := range users {
		lines = append(lines, fmt.Sprintf("%d (%s)", user.ChatID, user.Name))
	}

	return strings.Join(lines, "\n")
}

func weekdaySet(days []time.Weekday) map[time.Weekday]struct{} {
	set := make(map[time.Weekday]struct{}, len(days))
	for _, day := range days {
		set[day] = struct{}{}
	}

	return set
}
