package log

// JournalPriority exposes the journal priority of a level for tests.
var JournalPriority = journalPriority

// StderrIsJournalStream exposes the journal stream check for tests.
var StderrIsJournalStream = stderrIsJournalStream
