package dto

import "github.com/yukikurage/kanban-board-api/internal/services"

// AssigneeBadgeDTO is an assignee as drawn on a card
type AssigneeBadgeDTO struct {
	UserID uint64 `json:"user_id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// BoardTaskDTO is a card on the board
type BoardTaskDTO struct {
	TaskListItemDTO
	SortIndex    float64            `json:"sort_index"`
	TimeTracked  int64              `json:"time_tracked"`
	DueDateLabel string             `json:"due_date_label"`
	Assignees    []AssigneeBadgeDTO `json:"assignees"`
}

// BoardColumnDTO is a container with its cards in order
type BoardColumnDTO struct {
	Container ContainerDTO   `json:"container"`
	Tasks     []BoardTaskDTO `json:"tasks"`
}

// BoardResponse is the full board of a user
type BoardResponse struct {
	Columns []BoardColumnDTO `json:"columns"`
}

// ToBoardResponse converts the board projection to its response
func ToBoardResponse(columns []services.BoardColumn) BoardResponse {
	out := make([]BoardColumnDTO, len(columns))
	for i, column := range columns {
		cards := make([]BoardTaskDTO, len(column.Tasks))
		for j, card := range column.Tasks {
			badges := make([]AssigneeBadgeDTO, len(card.Assignees))
			for k, b := range card.Assignees {
				badges[k] = AssigneeBadgeDTO{UserID: b.UserID, Name: b.Name, Color: b.Color}
			}
			cards[j] = BoardTaskDTO{
				TaskListItemDTO: ToTaskListItemDTO(card.Task),
				SortIndex:       card.Task.SortIndex,
				TimeTracked:     card.Task.TimeTracked,
				DueDateLabel:    card.DueDateLabel,
				Assignees:       badges,
			}
		}
		out[i] = BoardColumnDTO{
			Container: ToContainerDTO(column.Container),
			Tasks:     cards,
		}
	}
	return BoardResponse{Columns: out}
}
