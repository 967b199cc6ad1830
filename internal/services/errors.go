package services

import (
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
)

var (
	ErrTaskNotFound        = apierrors.NewAPIError(apierrors.ErrCodeNotFound, "task not found")
	ErrNotTaskCreator      = apierrors.NewAPIError(apierrors.ErrCodeForbidden, "only the task creator can perform this action")
	ErrTaskAccessDenied    = apierrors.NewAPIError(apierrors.ErrCodeForbidden, "user is neither the creator nor an assignee of this task")
	ErrTitleRequired       = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "title is required")
	ErrTitleTooLong        = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "title is too long")
	ErrInvalidPriority     = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "priority must be one of Low, Normal, High")
	ErrInvalidSortIndex    = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "sort_index must be a finite number")
	ErrContainerRequired   = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "container_id is required")
	ErrInvalidTaskAssignee = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "one or more assignees do not exist")
	ErrInvalidAttachment   = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "attachments need a name and a url")

	ErrContainerNotFound         = apierrors.NewAPIError(apierrors.ErrCodeNotFound, "container not found")
	ErrContainerNotVisible       = apierrors.NewAPIError(apierrors.ErrCodeConflict, "container does not exist or is not available to this user")
	ErrDefaultContainerImmutable = apierrors.NewAPIError(apierrors.ErrCodeConflict, "default containers cannot be modified or deleted")
	ErrNotContainerOwner         = apierrors.NewAPIError(apierrors.ErrCodeForbidden, "only the container owner can perform this action")
	ErrContainerInUse            = apierrors.NewAPIError(apierrors.ErrCodeConflict, "container still holds tasks")
	ErrInvalidColor              = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "color must look like #RRGGBB")

	ErrEmptyReorder       = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "at least one item is required")
	ErrTooManyItems       = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "too many items in one request")
	ErrDuplicateItem      = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "a task may appear only once per request")
	ErrTaskNotInContainer = apierrors.NewAPIError(apierrors.ErrCodeConflict, "task does not belong to the stated container")
	ErrAmbiguousPlacement = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "give either sort_index or neighbouring tasks, not both")
	ErrInvalidNeighbours  = apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "after_task_id must come before before_task_id")

	ErrSessionAlreadyActive = apierrors.NewAPIError(apierrors.ErrCodeConflict, "time tracking is already running for this task")
	ErrNoActiveSession      = apierrors.NewAPIError(apierrors.ErrCodeConflict, "no active time tracking session for this task")
)
