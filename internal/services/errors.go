package services

import "github.com/emilythestrangee/agora/backend/internal/apperrors"

var (
	ErrVersionConflict = apperrors.Conflict("VERSION_CONFLICT", "The post was already modified")
	ErrNoChanges       = apperrors.Conflict("NO_CHANGES", "The post has no changes to save")
	ErrPostNotFound    = apperrors.NotFound("POST_NOT_FOUND", "Post not found")
	ErrParentNotFound  = apperrors.NotFound("PARENT_NOT_FOUND", "Parent post not found")
	ErrNotAuthor       = apperrors.Forbidden("NOT_AUTHOR", "You can only change your own posts")
	ErrPostingDisabled = apperrors.Forbidden("POSTING_DISABLED", "Your account is not allowed to create posts")

	ErrVoteNotFound = apperrors.NotFound("VOTE_NOT_FOUND", "You have not voted on this post")

	ErrKarmaRunInProgress = apperrors.Conflict("KARMA_RUN_IN_PROGRESS", "A karma run is already in progress")

	ErrCommunityNotFound = apperrors.NotFound("COMMUNITY_NOT_FOUND", "Community not found")
	ErrPrivateCommunity  = apperrors.Forbidden("PRIVATE_COMMUNITY", "Private community is not accessible.")
	ErrNotCommunityAdmin = apperrors.Forbidden("NOT_COMMUNITY_ADMIN", "Only community admins and moderators can do this")
	ErrAlreadyMember     = apperrors.Conflict("ALREADY_MEMBER", "You are already a member of this community")
	ErrNotMember         = apperrors.NotFound("NOT_A_MEMBER", "Membership not found")
	ErrNotModerator      = apperrors.Conflict("NOT_A_MODERATOR", "User is not a moderator of this community")
	ErrSlugExhausted     = apperrors.Conflict("SLUG_TAKEN", "Could not generate a unique slug")

	ErrSelfAward      = apperrors.Forbidden("SELF_AWARD", "You cannot award your own post.")
	ErrAlreadyAwarded = apperrors.Conflict("ALREADY_AWARDED", "You have already awarded this post")
	ErrNoReceiver     = apperrors.Validation("NO_RECEIVER", "This post has no author to receive the award", nil)

	ErrStaffOnly          = apperrors.Forbidden("STAFF_ONLY", "You do not have permission to access this page.")
	ErrReportNotFound     = apperrors.NotFound("REPORT_NOT_FOUND", "Report not found")
	ErrReportHandled      = apperrors.Conflict("REPORT_ALREADY_HANDLED", "This report has already been handled")
	ErrUserNotFound       = apperrors.NotFound("USER_NOT_FOUND", "User not found")
	ErrAlreadySaved       = apperrors.Conflict("ALREADY_SAVED", "Post is already saved")
	ErrSavedNotFound      = apperrors.NotFound("SAVED_NOT_FOUND", "Post is not saved")
	ErrUserExists         = apperrors.Conflict("USER_EXISTS", "Username or email already exists")
	ErrInvalidCredentials = apperrors.Unauthorized("INVALID_CREDENTIALS", "Invalid credentials")
	ErrAccountInactive    = apperrors.Forbidden("ACCOUNT_INACTIVE", "Account is not activated")
	ErrInvalidActivation  = apperrors.NotFound("INVALID_ACTIVATION", "Activation link is invalid or already used")
)

func validation(code, message string) error {
	return apperrors.Validation(code, message, nil)
}
