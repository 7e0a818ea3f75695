package main

import (
	"fmt"
	"strconv"
	"strings"

	"outreach/internal/queue"
)

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, v := range values {
		status, ok := queue.ParseStatus(v)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", v)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parseTaskStatuses(values []string) ([]queue.TaskStatus, error) {
	statuses := make([]queue.TaskStatus, 0, len(values))
	for _, v := range values {
		status, ok := queue.ParseTaskStatus(v)
		if !ok {
			return nil, fmt.Errorf("unknown task status %q", v)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func plural(n int64, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
