package rest

import (
	"fmt"
	"net/url"
)

// RouteBase selects which service host a route targets.
type RouteBase int

const (
	// BaseAPI is the primary JSON API.
	BaseAPI RouteBase = iota
	// BaseMedia is the media upload service.
	BaseMedia
	// BaseCDN is the static content host.
	BaseCDN
)

// Route is one REST endpoint: a method plus a path relative to one of the
// service bases. Paths are built with url.PathEscape'd parameters so IDs
// can never break out of their segment.
type Route struct {
	Method string
	Path   string
	Base   RouteBase
}

func newRoute(method, format string, params ...string) Route {
	escaped := make([]any, len(params))
	for i, p := range params {
		escaped[i] = url.PathEscape(p)
	}
	return Route{Method: method, Path: fmt.Sprintf(format, escaped...)}
}

func newMediaRoute(method, path string) Route {
	return Route{Method: method, Path: path, Base: BaseMedia}
}

func routeLogin() Route  { return newRoute("POST", "/login") }
func routeLogout() Route { return newRoute("POST", "/logout") }
func routeMe() Route     { return newRoute("GET", "/me") }
func routePing() Route   { return newRoute("PUT", "/users/me/ping") }

func routeChannelMessages(channelID string) Route {
	return newRoute("GET", "/channels/%s/messages", channelID)
}

func routeChannelMessage(channelID, messageID string) Route {
	return newRoute("GET", "/content/route/metadata?route=//channels/%s/chat?messageId=%s",
		channelID, messageID)
}

func routeCreateMessage(channelID string) Route {
	return newRoute("POST", "/channels/%s/messages", channelID)
}

func routeUpdateMessage(channelID, messageID string) Route {
	return newRoute("PUT", "/channels/%s/messages/%s", channelID, messageID)
}

func routeDeleteMessage(channelID, messageID string) Route {
	return newRoute("DELETE", "/channels/%s/messages/%s", channelID, messageID)
}

func routeChannelMetadata(channelID string) Route {
	return newRoute("GET", "/content/route/metadata?route=//channels/%s/chat", channelID)
}

func routeDeleteChannel(channelID string) Route {
	return newRoute("DELETE", "/channels/%s", channelID)
}

func routeUser(userID string) Route {
	return newRoute("GET", "/users/%s", userID)
}

func routeTeam(teamID string) Route {
	return newRoute("GET", "/teams/%s", teamID)
}

func routeTeamMembers(teamID string) Route {
	return newRoute("GET", "/teams/%s/members", teamID)
}

func routeTeamMember(teamID, userID string) Route {
	return newRoute("GET", "/teams/%s/members/%s", teamID, userID)
}

func routeTeamChannels(teamID string) Route {
	return newRoute("GET", "/teams/%s/channels", teamID)
}

func routeSearchTeams(query string) Route {
	return Route{Method: "GET", Path: "/search?type=team&query=" + url.QueryEscape(query)}
}

func routeJoinTeam(teamID string) Route {
	return newRoute("PUT", "/teams/%s/members/me/join", teamID)
}

func routeLeaveTeam(teamID string) Route {
	return newRoute("DELETE", "/teams/%s/members/me", teamID)
}

func routeAcceptInvite(inviteID string) Route {
	return newRoute("PUT", "/invites/%s", inviteID)
}

func routeCreateTeamInvite(teamID string) Route {
	return newRoute("POST", "/teams/%s/invites", teamID)
}

func routeMemberNickname(teamID, userID string) Route {
	return newRoute("PUT", "/teams/%s/members/%s/nickname", teamID, userID)
}

func routeDeleteMemberNickname(teamID, userID string) Route {
	return newRoute("DELETE", "/teams/%s/members/%s/nickname", teamID, userID)
}

func routeCreateGroup(teamID string) Route {
	return newRoute("POST", "/teams/%s/groups", teamID)
}

func routeUpdateGroup(teamID, groupID string) Route {
	return newRoute("PUT", "/teams/%s/groups/%s", teamID, groupID)
}

func routeDeleteGroup(teamID, groupID string) Route {
	return newRoute("DELETE", "/teams/%s/groups/%s", teamID, groupID)
}

func routeDeleteTeamEmoji(teamID string, emojiID int64) Route {
	return newRoute("DELETE", "/teams/%s/emoji/%s", teamID, fmt.Sprintf("%d", emojiID))
}

func routeUploadMedia() Route {
	return newMediaRoute("POST", "/media/upload")
}
